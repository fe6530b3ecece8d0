package lib

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

func NewScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	return sched, nil
}

// CreateCronJob runs task every interval. A run that is still going when the
// next one is due causes that next run to be skipped.
func CreateCronJob(sched gocron.Scheduler, name string, interval time.Duration, task func()) (*string, error) {
	j, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	log.Printf("Job: %s %s\n", id, j.Name())
	return &id, nil
}
