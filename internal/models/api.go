package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// TenderStatsResponse reports how many tenders sit in each lifecycle state
type TenderStatsResponse struct {
	Waiting     int64 `json:"waiting_for_filtering"`
	Qualified   int64 `json:"qualified"`
	Unqualified int64 `json:"unqualified"`
	Notified    int64 `json:"notified"`
	Total       int64 `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
