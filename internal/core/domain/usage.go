package domain

import "time"

// UsageLogEntry is one append-only ledger line. Cost is positive for a
// metered deduction and negative for a credit addition.
type UsageLogEntry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	Cost      int64     `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageBucket is one calendar day of aggregated usage.
type UsageBucket struct {
	Date        string `json:"date"`
	CreditsUsed int64  `json:"credits"`
	CallCount   int    `json:"apiCalls"`
}
