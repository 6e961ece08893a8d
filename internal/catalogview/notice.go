package catalogview

import "errors"

// Notice is the user-visible report of a failed mutation.
type Notice struct {
	Op      string // e.g. "create_week"
	Message string
	Err     error
}

// Notifier receives notices. Notify is called without the view lock held.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

func noticeFor(op string, err error) Notice {
	var msg string
	switch {
	case errors.Is(err, ErrPermissionDenied):
		msg = "You are not permitted to do that."
	case errors.Is(err, ErrNotFound):
		msg = "This entry was changed or removed by someone else. Your change was undone; refresh to see the latest catalog."
	case errors.Is(err, ErrNetworkUnavailable):
		msg = "Could not reach the server. Your change was undone."
	default:
		msg = "The server rejected the change. Your change was undone."
	}
	return Notice{Op: op, Message: msg, Err: err}
}
