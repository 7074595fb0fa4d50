package invoice

import (
	"context"

	"go.uber.org/zap"
)

type Renderer interface {
	Generate(ctx context.Context, orderID uint) (string, error)
}

// Worker renders invoices off the request path. It holds no database locks:
// confirmation commits first, then hands the order id over.
type Worker struct {
	gen  Renderer
	jobs chan uint
	log  *zap.Logger
	done chan struct{}
}

func NewWorker(gen Renderer, log *zap.Logger, buffer int) *Worker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Worker{
		gen:  gen,
		jobs: make(chan uint, buffer),
		log:  log,
		done: make(chan struct{}),
	}
}

// Enqueue never blocks the caller. When the queue is full the job is dropped
// and the invoice is rendered lazily on the next fetch.
func (w *Worker) Enqueue(orderID uint) {
	select {
	case w.jobs <- orderID:
	default:
		w.log.Warn("invoice queue full, dropping job", zap.Uint("order_id", orderID))
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case orderID := <-w.jobs:
				if _, err := w.gen.Generate(ctx, orderID); err != nil {
					w.log.Error("invoice generation failed",
						zap.Uint("order_id", orderID), zap.Error(err))
				}
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() {
	<-w.done
}
