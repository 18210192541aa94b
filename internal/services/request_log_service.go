// Package services holds the background services of the gateway.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trans-gate/internal/models"
)

const (
	// DefaultLogFlushBatchSize bounds one insert batch.
	DefaultLogFlushBatchSize = 200

	defaultFlushInterval = 30 * time.Second
	pendingBufferSize    = 1024
)

// RequestLogService buffers request log entries in memory and flushes them to
// the database in batches, so the translate path never waits on a write.
type RequestLogService struct {
	db       *gorm.DB
	pending  chan models.RequestLog
	stopChan chan struct{}
	wg       sync.WaitGroup
	interval time.Duration
}

// NewRequestLogService creates a new RequestLogService instance.
func NewRequestLogService(db *gorm.DB) *RequestLogService {
	return &RequestLogService{
		db:       db,
		pending:  make(chan models.RequestLog, pendingBufferSize),
		stopChan: make(chan struct{}),
		interval: defaultFlushInterval,
	}
}

// Start launches the periodic flush routine.
func (s *RequestLogService) Start() {
	s.wg.Add(1)
	go s.runLoop()
}

// Record queues one log entry. The entry is dropped with a warning when the
// buffer is full; logging must never block or fail a translation.
func (s *RequestLogService) Record(entry models.RequestLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	select {
	case s.pending <- entry:
	default:
		logrus.Warn("Request log buffer full, dropping entry")
	}
}

func (s *RequestLogService) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.stopChan:
			return
		}
	}
}

// flush drains the buffer and writes it in batches.
func (s *RequestLogService) flush() {
	var batch []models.RequestLog
	for {
		select {
		case entry := <-s.pending:
			batch = append(batch, entry)
			if len(batch) >= DefaultLogFlushBatchSize {
				s.write(batch)
				batch = nil
			}
		default:
			if len(batch) > 0 {
				s.write(batch)
			}
			return
		}
	}
}

func (s *RequestLogService) write(batch []models.RequestLog) {
	if err := s.db.CreateInBatches(batch, DefaultLogFlushBatchSize).Error; err != nil {
		logrus.WithError(err).Errorf("Failed to write %d request log entries", len(batch))
		return
	}
	logrus.Debugf("Flushed %d request log entries", len(batch))
}

// Stop flushes remaining entries and stops the routine, bounded by ctx.
func (s *RequestLogService) Stop(ctx context.Context) {
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.flush()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("RequestLogService stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("RequestLogService stop timed out.")
	}
}
