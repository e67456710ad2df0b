package itemqueue

import (
	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports an internal queue error.
//
// Internal errors are non-item failures such as tracker bookkeeping
// violations or a panicking event handler. They are always logged and
// forwarded to Config.OnInternalError when set.
func (q *Queue[T]) reportInternalError(e error) {
	lg.FromContext(q.ctx).With(lg.String("queue", q.id)).Error("internal error", lg.Any("error", e))
	if q.onInternalError != nil {
		q.onInternalError(e)
	}
}

// reportItemError records a failed item.
//
// Item errors never stop the event loop; whether they halt the queue is
// decided by the completion handler.
func (q *Queue[T]) reportItemError(id uint64, item T, err error) {
	q.metrics.IncFailed()
	lg.FromContext(q.ctx).With(lg.String("queue", q.id)).Warn("item failed",
		lg.Any("id", id),
		lg.Any("item", item),
		lg.Any("error", err),
	)
}
