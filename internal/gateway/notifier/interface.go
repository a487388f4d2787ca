package notifier

import "context"

// TextNotifier sends a plain text alert to the operator chat.
type TextNotifier interface {
	SendText(text string) error
}

// Dispatcher delivers a message to an arbitrary chat. Deliver never returns an
// error: failures are logged and reported through the boolean.
type Dispatcher interface {
	Deliver(ctx context.Context, chatID, text string) bool
}
