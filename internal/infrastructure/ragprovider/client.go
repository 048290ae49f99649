// Package ragprovider fetches legal reference snippets from the retrieval
// API to enrich prompts. It is best-effort: any fault means no snippets.
package ragprovider

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client queries the retrieval API.
type Client struct {
	httpClient *resty.Client
	enabled    bool
	log        zerolog.Logger
}

type queryRequest struct {
	Query       string `json:"query"`
	CountryCode string `json:"country_code,omitempty"`
}

type queryResponse struct {
	Snippets []string `json:"snippets"`
}

// NewClient creates a Resty-backed retrieval client. An empty baseURL
// disables retrieval entirely.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	c := &Client{
		enabled: baseURL != "",
		log:     log.With().Str("component", "ragprovider").Logger(),
	}
	if c.enabled {
		c.httpClient = resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(15 * time.Second)
	}
	return c
}

// FetchContext returns reference snippets for the facts narrative. Faults
// and non-2xx responses degrade to an empty result so the analysis can
// proceed without reference material.
func (c *Client) FetchContext(ctx context.Context, query, countryCode string) []string {
	if !c.enabled {
		return nil
	}

	var result queryResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(queryRequest{Query: query, CountryCode: countryCode}).
		SetResult(&result).
		Post("/query")
	if err != nil {
		c.log.Error().Err(err).Msg("retrieval query failed")
		return nil
	}
	if resp.IsError() {
		c.log.Error().Int("status", resp.StatusCode()).Msg("retrieval query rejected")
		return nil
	}
	return result.Snippets
}
