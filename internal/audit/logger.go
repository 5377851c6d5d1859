// Package audit persists governor admission decisions asynchronously so
// the request path never waits on the database.
package audit

import (
	"log"
	"time"

	"github.com/aman-churiwal/assistant-gateway/internal/models"
	"github.com/aman-churiwal/assistant-gateway/internal/storage"
)

const batchSize = 100

type Logger struct {
	ch chan models.UsageRecord
	db *storage.Postgres
}

// New starts the background worker. Records are batch-inserted when the
// batch fills or every flush interval, whichever comes first.
func New(db *storage.Postgres, bufferSize int) *Logger {
	l := &Logger{
		ch: make(chan models.UsageRecord, bufferSize),
		db: db,
	}

	go func() {
		batch := make([]models.UsageRecord, 0, batchSize)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case rec := <-l.ch:
				batch = append(batch, rec)
				if len(batch) >= batchSize {
					l.flush(batch)
					batch = make([]models.UsageRecord, 0, batchSize)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					l.flush(batch)
					batch = make([]models.UsageRecord, 0, batchSize)
				}
			}
		}
	}()

	return l
}

func (l *Logger) flush(batch []models.UsageRecord) {
	if err := l.db.DB.Create(&batch).Error; err != nil {
		log.Printf("Failed to insert usage records: %v", err)
	}
}

// Record queues one decision. Non-blocking: when the buffer is full the
// record is dropped rather than stalling the request.
func (l *Logger) Record(rec models.UsageRecord) {
	if l == nil {
		return
	}
	select {
	case l.ch <- rec:
	default:
		log.Println("Usage record channel full, dropping entry")
	}
}
