package ui

// Alert holds a message shown until the user dismisses it. A message is only
// ever shown once.
type Alert struct {
	message string
	shown   bool
}

// Show queues msg unless an alert was already shown or msg is empty.
func (a *Alert) Show(msg string) {
	if a.shown || msg == "" {
		return
	}
	a.message = msg
	a.shown = true
}

// Active reports whether a message is waiting to be dismissed.
func (a *Alert) Active() bool { return a.message != "" }

// Message returns the pending message.
func (a *Alert) Message() string { return a.message }

// Dismiss clears the pending message.
func (a *Alert) Dismiss() { a.message = "" }
