// File: internal/jobs/listing_lapse.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/listing"
)

// ListingLapseJob periodically deactivates listings with no recent activity
// so stale businesses drop out of public search.
type ListingLapseJob struct {
	listingService listing.Service
	logger         *zap.Logger
	cfg            *config.Config
	cronScheduler  *cron.Cron
}

func NewListingLapseJob(listingService listing.Service, logger *zap.Logger, cfg *config.Config) *ListingLapseJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))
	return &ListingLapseJob{
		listingService: listingService,
		logger:         logger.Named("ListingLapseJob"),
		cfg:            cfg,
		cronScheduler:  scheduler,
	}
}

// SetupAndStart schedules and starts the job. An empty schedule disables it.
func (j *ListingLapseJob) SetupAndStart() error {
	jobSpec := j.cfg.ListingLapseSchedule
	if jobSpec == "" {
		j.logger.Warn("Listing lapse job schedule not defined (LISTING_LAPSE_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule listing lapse job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Listing lapse job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *ListingLapseJob) runJob() {
	j.logger.Info("Starting listing lapse job run")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	lapsedCount, err := j.listingService.DeactivateLapsedListings(ctx)
	if err != nil {
		j.logger.Error("Listing lapse job run failed", zap.Error(err))
		return
	}
	j.logger.Info("Listing lapse job run completed", zap.Int("listings_lapsed", lapsedCount))
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (j *ListingLapseJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping listing lapse job scheduler")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Listing lapse job scheduler stopped")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Listing lapse job scheduler stop timed out")
	}
}

// --- Cron Logger Adapter ---

type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger adapts zap.Logger to the cron.Logger interface.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
