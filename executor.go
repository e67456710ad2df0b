package itemqueue

import (
	"context"

	lg "github.com/Andrej220/go-utils/zlog"
)

// Launcher runs a dispatched item somewhere other than the queue's event
// loop. It is the queue's only asynchronous strategy: swapping it changes
// where ProcessItem runs, never the scheduling semantics.
//
// Launch may block until the task has been accepted. It must not wait for
// the task to finish. A returned error fails the item.
type Launcher interface {
	Launch(task func()) error
}

// GoLauncher starts one goroutine per task.
type GoLauncher struct {
	// Ctx carries the logger used to report task panics.
	Ctx context.Context
}

func (l GoLauncher) Launch(task func()) error {
	ctx := l.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go runTask(ctx, task)
	return nil
}

// runTask executes task and keeps a panic from taking the process down.
// Queue tasks recover their own panics; this is the last line for
// foreign tasks handed to a launcher.
func runTask(ctx context.Context, task func()) {
	defer func() {
		if r := recover(); r != nil {
			lg.FromContext(ctx).Error("task panicked", lg.Any("panic", r))
		}
	}()
	task()
}
