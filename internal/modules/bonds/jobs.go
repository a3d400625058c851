package bonds

import (
	"time"

	"github.com/rs/zerolog"
)

// RevalueJob recomputes and stores a valuation snapshot for every bond on
// the books, then prunes snapshots older than the retention window. It
// implements the scheduler Job interface and is registered with a cron
// schedule in cmd/server.
type RevalueJob struct {
	service       *Service
	retentionDays int
	log           zerolog.Logger
}

// NewRevalueJob creates a new revaluation job. A retention of zero or less
// keeps the valuation history forever.
func NewRevalueJob(service *Service, retentionDays int, log zerolog.Logger) *RevalueJob {
	return &RevalueJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "bonds_revalue").Logger(),
	}
}

// Name returns the job name used in scheduler logs.
func (j *RevalueJob) Name() string {
	return "bonds_revalue"
}

// Run revalues all bonds with settlement on the current UTC date, then
// applies the history retention window.
func (j *RevalueJob) Run() error {
	now := time.Now().UTC()

	if _, err := j.service.RevalueAll(now); err != nil {
		return err
	}

	if j.retentionDays > 0 {
		if _, err := j.service.PruneHistory(now.AddDate(0, 0, -j.retentionDays)); err != nil {
			return err
		}
	}
	return nil
}
