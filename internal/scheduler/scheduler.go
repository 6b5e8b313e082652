package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers the nightly backup snapshot.
type Scheduler struct {
	cron       *cron.Cron
	backupFunc func() error
}

func New(backupFunc func() error) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		backupFunc: backupFunc,
	}
}

// Start schedules the nightly backup. Daily at 21:00 UTC.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 21 * * *", func() {
		log.Println("🕘 Triggered nightly backup at 21:00 UTC")
		if err := s.backupFunc(); err != nil {
			log.Printf("❌ Nightly backup failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Println("📅 Scheduler started - backups run daily at 21:00 UTC")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	log.Println("📅 Scheduler stopped")
}
