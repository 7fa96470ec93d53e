package observability

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Snapshot struct {
	Succeeded           int64
	Failed              int64
	ConsecutiveFailures int64
}

// RunObserver logs per-case outcomes of an evaluation run and raises an
// alert line after every alertAfter consecutive failures. A nil observer
// ignores every call.
type RunObserver struct {
	logger     *zap.Logger
	alertAfter int64

	mu          sync.Mutex
	succeeded   int64
	failed      int64
	consecutive int64
}

func NewRunObserver(logger *zap.Logger, alertAfter int) *RunObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunObserver{logger: logger, alertAfter: int64(alertAfter)}
}

func (o *RunObserver) RecordSuccess(testID string, latency time.Duration, accuracy float64) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.succeeded++
	o.consecutive = 0
	o.mu.Unlock()

	o.logger.Info("case succeeded",
		zap.String("test_id", testID),
		zap.Duration("latency", latency),
		zap.Float64("accuracy", accuracy))
}

func (o *RunObserver) RecordFailure(testID string, reason string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.failed++
	o.consecutive++
	streak := o.consecutive
	o.mu.Unlock()

	o.logger.Warn("case failed", zap.String("test_id", testID), zap.String("reason", reason))
	if o.alertAfter > 0 && streak%o.alertAfter == 0 {
		o.logger.Error("run alert: repeated failures",
			zap.Int64("consecutive_failures", streak),
			zap.String("last_reason", reason))
	}
}

func (o *RunObserver) Snapshot() Snapshot {
	if o == nil {
		return Snapshot{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{Succeeded: o.succeeded, Failed: o.failed, ConsecutiveFailures: o.consecutive}
}
