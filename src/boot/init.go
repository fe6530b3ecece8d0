package boot

import (
	"context"
	"log"
	"time"

	"standup/src/common"
	"standup/src/config"
	"standup/src/db"
	"standup/src/lib"
	"standup/src/middlewares"
	"standup/src/store"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

const (
	reconcileTimeout = 2 * time.Minute
	limiterIdleAfter = 30 * time.Minute
)

// InitStore opens the configured store and wraps it with the redis cache when
// REDIS_HOST is set. An unreachable redis is logged and skipped.
func InitStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var s store.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Println("Using in-memory store. Data is lost on restart")
		s = store.NewMemoryStore()
	default:
		gdb, err := InitDb(cfg.DSN)
		if err != nil {
			return nil, err
		}
		s = store.NewGormStore(gdb)
	}

	if cfg.RedisURL == "" {
		return s, nil
	}
	rdb, err := lib.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Redis is unavailable, serving without cache: %s\n", err.Error())
		return s, nil
	}
	return store.NewCachedStore(s, rdb, cfg.CacheTTL), nil
}

func InitDb(dsn string) (*gorm.DB, error) {
	gdb, err := db.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		log.Printf("error migration: %s\n", err.Error())
		return nil, err
	}
	return gdb, nil
}

// InitScheduler registers the periodic jobs and starts the scheduler.
func InitScheduler(cfg *config.Config, s store.Store, limiter *middlewares.RateLimiter) (gocron.Scheduler, error) {
	sched, err := lib.NewScheduler()
	if err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval > 0 {
		if _, err := lib.CreateCronJob(sched, "reconcile-memberships", cfg.ReconcileInterval, func() {
			RunReconcile(context.Background(), s)
		}); err != nil {
			log.Printf("Error scheduling membership reconciliation: %s\n", err.Error())
			return nil, err
		}
	} else {
		log.Println("RECONCILE_INTERVAL is 0. Membership reconciliation is disabled")
	}
	if limiter != nil {
		if _, err := lib.CreateCronJob(sched, "sweep-rate-limiters", limiterIdleAfter/3, func() {
			if n := limiter.Sweep(limiterIdleAfter); n > 0 {
				log.Printf("Dropped %d idle rate limiters\n", n)
			}
		}); err != nil {
			log.Printf("Error scheduling limiter sweep: %s\n", err.Error())
			return nil, err
		}
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
	return sched, nil
}

// RunReconcile runs one reconciliation pass with a bounded deadline.
func RunReconcile(ctx context.Context, s store.Store) (common.ReconcileReport, error) {
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()
	report, err := common.ReconcileMemberships(ctx, s)
	if err != nil {
		log.Printf("Error reconciling memberships: %s\n", err.Error())
		return report, err
	}
	if report.Changed() {
		log.Printf("Reconciled memberships: teams=%d created=%d updated=%d deleted=%d\n",
			report.TeamsTouched, report.Created, report.Updated, report.Deleted)
	}
	return report, nil
}

func StopScheduler(sched gocron.Scheduler) {
	if err := sched.Shutdown(); err != nil {
		log.Printf("An error has occurred while stopping Scheduler: %s\n", err.Error())
	}
}
