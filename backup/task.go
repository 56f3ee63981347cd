package backup

import "context"

// Progress reports how far a task has come. Total is zero when unknown.
type Progress struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

const progressBuffer = 32

// Task is a cancellable background operation. Progress updates are dropped
// when the reader falls behind; the final result is always available from
// Wait.
type Task[T any] struct {
	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	result T
	err    error
}

func startTask[T any](ctx context.Context, run func(ctx context.Context, report func(Progress)) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go func() {
		defer close(t.done)
		defer close(t.progress)
		defer cancel()
		t.result, t.err = run(ctx, t.report)
	}()
	return t
}

func (t *Task[T]) report(p Progress) {
	select {
	case t.progress <- p:
	default:
	}
}

// Progress is closed when the task finishes.
func (t *Task[T]) Progress() <-chan Progress { return t.progress }

// Cancel stops the task at the next record boundary.
func (t *Task[T]) Cancel() { t.cancel() }

// Done is closed when the task finishes.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.result, t.err
}
