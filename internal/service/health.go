package service

import "context"

// PingerInterface reports database connectivity. *pgxpool.Pool satisfies it.
type PingerInterface interface {
	Ping(ctx context.Context) error
}

// SchemeStatsInterface reports how many schemes are stored and embedded.
type SchemeStatsInterface interface {
	Counts(ctx context.Context) (total, embedded int64, err error)
}

// IndexSizerInterface reports how many vectors an in-process index holds.
type IndexSizerInterface interface {
	Len() int
}

const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// IndexStatus describes the vector index backend and its fill level.
type IndexStatus struct {
	Backend  string
	Ready    bool
	Total    int64
	Embedded int64
}

// HealthStatus is the aggregate readiness report. The service cannot answer
// queries until the index holds at least one vector.
type HealthStatus struct {
	Status   string
	Database string
	Index    IndexStatus
}

// HealthService aggregates readiness of the database and the vector index.
// Any of the dependencies may be nil; what is absent is reported as disabled
// rather than broken.
type HealthService struct {
	pinger  PingerInterface
	stats   SchemeStatsInterface
	sizer   IndexSizerInterface
	backend string
}

// NewHealthService creates a new HealthService instance
func NewHealthService(pinger PingerInterface, stats SchemeStatsInterface, sizer IndexSizerInterface, backend string) *HealthService {
	return &HealthService{
		pinger:  pinger,
		stats:   stats,
		sizer:   sizer,
		backend: backend,
	}
}

// Check reports readiness. It never returns an error; trouble surfaces as a
// degraded status.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:   HealthOK,
		Database: "disabled",
		Index:    IndexStatus{Backend: s.backend},
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			status.Database = "unavailable"
		} else {
			status.Database = "ok"
		}
	}

	if s.stats != nil && status.Database == "ok" {
		if total, embedded, err := s.stats.Counts(ctx); err == nil {
			status.Index.Total = total
			status.Index.Embedded = embedded
			status.Index.Ready = embedded > 0
		}
	}

	if s.sizer != nil {
		n := int64(s.sizer.Len())
		status.Index.Total = n
		status.Index.Embedded = n
		status.Index.Ready = n > 0
	}

	if status.Database == "unavailable" || !status.Index.Ready {
		status.Status = HealthDegraded
	}

	return status
}
