package service

import "context"

// QueryLogEntry captures a query request and its outcome.
type QueryLogEntry struct {
	Query       string
	K           int
	State       string
	Category    string
	ResultCount int
	Answered    bool
	ErrorCode   string
	DurationMs  int
	SchemeIDs   []string
}

// QueryLogRepository persists query logs.
type QueryLogRepository interface {
	CreateQueryLog(ctx context.Context, entry QueryLogEntry) (string, error)
}
