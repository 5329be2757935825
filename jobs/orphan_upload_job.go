package jobs

import (
	"context"
	"log"
	"time"
)

// OrphanCleaner removes uploads that were never attached to anything.
type OrphanCleaner interface {
	CleanupOrphans(ctx context.Context) (int, error)
}

// OrphanUploadJob periodically deletes unclaimed images from object storage.
type OrphanUploadJob struct {
	uploads  OrphanCleaner
	interval time.Duration
	stopChan chan bool
}

func NewOrphanUploadJob(uploads OrphanCleaner, interval time.Duration) *OrphanUploadJob {
	return &OrphanUploadJob{
		uploads:  uploads,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the cleanup job
func (j *OrphanUploadJob) Start() {
	go j.run()
	log.Println("🚀 Orphan upload job started")
}

// Stop stops the cleanup job
func (j *OrphanUploadJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Orphan upload job stopped")
}

func (j *OrphanUploadJob) run() {
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

// RunOnce removes one batch of orphans. Partial failures are logged and
// retried on the next tick.
func (j *OrphanUploadJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	if _, err := j.uploads.CleanupOrphans(ctx); err != nil {
		log.Printf("❌ Orphan upload cleanup: %v", err)
	}
}
