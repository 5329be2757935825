package jobs

import (
	"context"
	"log"
	"time"
)

// PresenceExpirer marks agents offline when their heartbeat has gone quiet.
type PresenceExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// LimiterPruner drops rate limiter buckets nobody has used for a while.
type LimiterPruner interface {
	Cleanup(maxIdle time.Duration) int
}

// PresenceJob takes silent agents offline and prunes idle rate limiters.
type PresenceJob struct {
	agents   PresenceExpirer
	limiters LimiterPruner
	interval time.Duration
	stopChan chan bool
}

// NewPresenceJob creates a presence job. limiters may be nil.
func NewPresenceJob(agents PresenceExpirer, limiters LimiterPruner, interval time.Duration) *PresenceJob {
	return &PresenceJob{
		agents:   agents,
		limiters: limiters,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the presence job
func (j *PresenceJob) Start() {
	go j.run()
	log.Println("🚀 Presence job started")
}

// Stop stops the presence job and waits for the loop to exit.
func (j *PresenceJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Presence job stopped")
}

func (j *PresenceJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(context.Background())
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce performs a single sweep.
func (j *PresenceJob) RunOnce(ctx context.Context) {
	expired, err := j.agents.ExpireStale(ctx)
	if err != nil {
		log.Printf("❌ Error expiring stale agents: %v", err)
	} else if expired > 0 {
		log.Printf("⏰ Took %d silent agents offline", expired)
	}

	if j.limiters != nil {
		if removed := j.limiters.Cleanup(time.Hour); removed > 0 {
			log.Printf("🧹 Pruned %d idle rate limiters", removed)
		}
	}
}
