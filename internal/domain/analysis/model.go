package analysis

import "time"

// Request carries one analysis submission. It is created from the inbound
// request body and consumed once.
type Request struct {
	Title       string
	Facts       string
	CountryCode string
}

// Prequalification is the write-once record of a completed analysis. It is
// never updated or read back by this service.
type Prequalification struct {
	UserID      string
	Title       string
	Facts       string
	CountryCode string
	Result      string
	CreatedAt   time.Time
}
