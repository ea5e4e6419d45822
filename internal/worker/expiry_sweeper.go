package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger removes up to limit expired mappings and reports how many it removed
type Purger interface {
	PurgeExpired(ctx context.Context, limit int) (int, error)
}

// maxBatchesPerSweep bounds a single sweep so a large backlog cannot starve shutdown
const maxBatchesPerSweep = 100

// ExpirySweeper periodically removes expired mappings
type ExpirySweeper struct {
	purger    Purger
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
	timeout   time.Duration
}

// NewExpirySweeper creates a sweeper. An interval of zero disables it.
func NewExpirySweeper(logger *zap.Logger, purger Purger, interval time.Duration, batchSize int) *ExpirySweeper {
	if batchSize < 1 {
		batchSize = 1
	}

	return &ExpirySweeper{
		purger:    purger,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		timeout:   30 * time.Second,
	}
}

// Run sweeps on every tick until ctx is done
func (s *ExpirySweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Expiry sweeper disabled")
		return nil
	}

	s.logger.Info("Expiry sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep purges full batches until a short batch signals the backlog is drained
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	total := 0
	for i := 0; i < maxBatchesPerSweep; i++ {
		n, err := s.purger.PurgeExpired(ctx, s.batchSize)
		total += n
		if err != nil {
			s.logger.Error("Cannot purge expired mappings", zap.Error(err), zap.Int("purged", total))
			return total
		}
		if n < s.batchSize {
			break
		}
	}

	if total > 0 {
		s.logger.Info("Purged expired mappings", zap.Int("count", total))
	}

	return total
}
