package event

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	subscriptions map[string][]func(event Queueable)
}

var (
	instance = &worker{
		subscriptions: map[string][]func(event Queueable){},
	}
	l = log.WithField("context", "event_worker")
)

// Subscribe registers fn for events of eventType. Register everything
// before starting the worker; subscriptions are not guarded.
func Subscribe(eventType string, fn func(event Queueable)) {
	instance.subscriptions[eventType] = append(instance.subscriptions[eventType], fn)
}

// Worker drains the bus and dispatches to subscribers. It satisfies
// lifecycle.Component.
type Worker struct {
	cancel context.CancelFunc
}

func NewWorker() *Worker {
	return &Worker{}
}

func (w *Worker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	instance.run(runCtx)
	return nil
}

func (w *Worker) Stop(_ context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

func (w *worker) run(ctx context.Context) {
	done := ctx.Done()

	go func() {
		l.Trace("events runner go")
		var event Queueable
		for {
			select {
			case <-done:
				l.Info("shutting down event worker by cancelled context")
				return
			default:
				time.Sleep(1 * time.Millisecond)
				event = Bus.DQ()
				if event == nil {
					continue
				}

				if event.Expired() {
					continue
				}

				subscribers, ok := w.subscriptions[event.Type()]
				if !ok {
					Bus.NQ(event)
					continue
				}
				for _, sub := range subscribers {
					sub(event)
					if event.IsDropped() {
						continue
					}
				}

				if event.IsDropped() {
					continue
				}
				if !event.IsProcessed() {
					Bus.NQ(event)
				}
			}
		}
	}()
}
