package chat

import "sync"

// Console tracks the notification banner shown to an operator. Every chat
// event repopulates the banner, including events for a chat the operator
// already dismissed; dismissal clears the current banner only.
type Console struct {
	mu      sync.Mutex
	current *ChatNotification
}

// NewConsole builds a console with no active notification.
func NewConsole() *Console {
	return &Console{}
}

// Apply replaces the active notification with the incoming event.
func (c *Console) Apply(notification ChatNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := notification
	c.current = &copied
}

// Dismiss clears the active notification. Dismissing an empty console is a
// no-op.
func (c *Console) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Current returns the active notification, or false when none is shown.
func (c *Console) Current() (ChatNotification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ChatNotification{}, false
	}
	return *c.current, true
}
