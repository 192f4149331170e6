package fixtures

import (
	"strings"
	"sync"
)

// Notifier records live-reload notifications.
type Notifier struct {
	mu     sync.Mutex
	events []string
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) Reload() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "reload")
}

func (n *Notifier) Stream(paths ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "stream "+strings.Join(paths, ","))
}

// Events returns the notifications received so far, as "reload" or
// "stream <path>,<path>".
func (n *Notifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}
