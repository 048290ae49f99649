package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/config"
	"github.com/iiresodh/prequal-api/internal/domain/apperr"
	"github.com/iiresodh/prequal-api/internal/domain/identity"
)

const identityContextKey = "caller_identity"

// Verifier validates Firebase ID tokens against Google's JWKS.
type Verifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
	log      zerolog.Logger
	jwks     *keyfunc.JWKS
}

// NewVerifier starts JWKS fetching for the configured project. The JWKS
// handle refreshes itself for the life of ctx.
func NewVerifier(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Verifier, error) {
	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}

	return &Verifier{
		keyfunc:  jwks.Keyfunc,
		issuer:   cfg.AuthIssuer(),
		audience: cfg.GoogleCloudProject,
		log:      log.With().Str("component", "auth").Logger(),
		jwks:     jwks,
	}, nil
}

// Authenticate verifies the Authorization header and returns the caller
// identity. The error taxonomy distinguishes a missing/malformed header, an
// expired token, and an invalid one; anything unexpected is internal and
// only its generic form reaches the caller.
func (v *Verifier) Authenticate(authHeader string) (identity.Identity, error) {
	tokenString := bearerToken(authHeader)
	if tokenString == "" {
		return identity.Identity{}, apperr.Unauthenticated("missing or malformed authorization header")
	}

	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return identity.Identity{}, apperr.Unauthenticated("the session token has expired")
		case isVerificationFailure(err):
			return identity.Identity{}, apperr.Unauthenticated("the token is invalid")
		default:
			v.log.Error().Err(err).Msg("unexpected authentication fault")
			return identity.Identity{}, apperr.Internal(err)
		}
	}
	if !token.Valid {
		return identity.Identity{}, apperr.Unauthenticated("the token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Identity{}, apperr.Unauthenticated("the token is invalid")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return identity.Identity{}, apperr.Unauthenticated("the token is invalid")
	}

	email, _ := claims["email"].(string)
	return identity.Identity{UserID: subject, Email: email}, nil
}

// Middleware authenticates every request and stores the identity in the
// gin context. Failures are terminal with the verifier's reported status.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := v.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
				"error": apperr.ClientMessage(err),
			})
			return
		}
		c.Set(identityContextKey, caller)
		c.Next()
	}
}

// Ready indicates whether the JWKS handle is available.
func (v *Verifier) Ready() bool {
	return v != nil && v.jwks != nil
}

// IdentityFromContext returns the identity stored by Middleware.
func IdentityFromContext(c *gin.Context) (identity.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return identity.Identity{}, false
	}
	caller, ok := value.(identity.Identity)
	return caller, ok
}

// SetIdentity stores an identity on the context the way Middleware does.
// Handler tests use it to bypass token verification.
func SetIdentity(c *gin.Context, caller identity.Identity) {
	c.Set(identityContextKey, caller)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// isVerificationFailure reports whether the parse error is a credential
// problem rather than an infrastructure fault.
func isVerificationFailure(err error) bool {
	verification := []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenInvalidSubject,
		jwt.ErrTokenInvalidId,
	}
	for _, target := range verification {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
