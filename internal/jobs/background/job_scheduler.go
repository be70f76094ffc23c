package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"oauthd/internal/services"
)

// JobScheduler runs the periodic maintenance jobs. Correctness never depends
// on them: expired tokens are already rejected at lookup time, the purge only
// reclaims storage.
type JobScheduler struct {
	scheduler gocron.Scheduler
	tokenSvc  services.TokenService
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(tokenSvc services.TokenService, purgeInterval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		tokenSvc:  tokenSvc,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(purgeInterval),
		gocron.NewTask(js.purgeExpiredTokens),
		gocron.WithName("token-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := js.tokenSvc.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Token purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Purged %d expired token records", purged)
	}
}
