package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrClosed = errors.New("publisher is closed")

const directQueueSize = 64

type delivery struct {
	ctx context.Context
	e   Event
}

// Direct доставляет события обработчикам в том же процессе, когда Kafka выключена.
// Доставка идёт в отдельной горутине по порядку публикации, поэтому запрос не ждёт Telegram
type Direct struct {
	handlers []Handler
	queue    chan delivery
	pending  sync.WaitGroup
	stopped  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDirect(handlers ...Handler) *Direct {
	d := &Direct{
		handlers: handlers,
		queue:    make(chan delivery, directQueueSize),
		stopped:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish ставит событие в очередь. Контекст запроса отвязывается от отмены,
// ошибки обработчиков логируются, как в консьюмере
func (d *Direct) Publish(ctx context.Context, e Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	d.pending.Add(1)
	job := delivery{ctx: context.WithoutCancel(ctx), e: e}
	select {
	case d.queue <- job:
		return nil
	default:
	}
	// очередь полна: ждём место, пока жив запрос
	select {
	case d.queue <- job:
		return nil
	case <-ctx.Done():
		d.pending.Done()
		return ctx.Err()
	}
}

func (d *Direct) run() {
	defer close(d.stopped)
	for job := range d.queue {
		for _, h := range d.handlers {
			if err := h.Handle(job.ctx, job.e); err != nil {
				slog.Error("failed to handle event", "type", job.e.Type, "key", job.e.Key(), "error", err)
			}
		}
		d.pending.Done()
	}
}

// Wait блокируется, пока не будут обработаны все опубликованные события
func (d *Direct) Wait() {
	d.pending.Wait()
}

// Close доставляет то, что уже в очереди, и останавливает горутину
func (d *Direct) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.stopped
	return nil
}
