// Package worker bounds concurrent fan-out work with an ants pool.
package worker

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"qvent-console/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a released pool
var ErrPoolClosed = stderrors.New("worker pool is closed")

// Task is a unit of work that receives the submitter's context
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission
type Pool struct {
	pool   *ants.Pool
	name   string
	logger *logger.Logger
}

// NewPool creates a blocking pool of size workers. Panics inside tasks are
// logged and recovered.
func NewPool(name string, size int, log *logger.Logger) (*Pool, error) {
	if size <= 0 {
		size = 8
	}
	log = log.Named("worker").WithField("pool", name)

	p, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v interface{}) {
			log.Error("Worker panic recovered", zap.Any("panic", v), zap.Stack("stack"))
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(30*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Pool{pool: p, name: name, logger: log}, nil
}

// Submit queues task. It returns ctx.Err() without queueing when ctx is
// already done. A queued task always runs, so callers can rely on it for
// bookkeeping, and should check ctx at blocking points.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.pool.Submit(func() {
		if ctx.Err() != nil {
			p.logger.Debug("Task starting with cancelled context", zap.Error(ctx.Err()))
		}
		task(ctx)
	})
	if stderrors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Running reports the number of busy workers
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Cap reports the pool size
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release stops accepting work and waits up to timeout for running tasks
func (p *Pool) Release(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}
