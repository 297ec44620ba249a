package fullscreen

import (
	"context"
	"sync"
)

// Command is a host call queued for the browser to perform
type Command struct {
	Target string   `json:"target"`
	API    string   `json:"api"`
	Args   []string `json:"args,omitempty"`
}

// Outbox is a Host for a remote page. Calls are queued as Commands and
// handed to the page with the next response; the page reports the result
// back as a fullscreen change event.
type Outbox struct {
	mu           sync.Mutex
	capabilities map[string]bool
	pending      []Command
}

// NewOutbox creates an Outbox for a page that reported capabilities
func NewOutbox(capabilities []string) *Outbox {
	o := &Outbox{capabilities: make(map[string]bool, len(capabilities))}
	for _, c := range capabilities {
		o.capabilities[c] = true
	}
	return o
}

// Supports reports whether the page announced api
func (o *Outbox) Supports(api string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.capabilities[api]
}

// Call queues a command
func (o *Outbox) Call(ctx context.Context, target string, api string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	o.pending = append(o.pending, Command{Target: target, API: api, Args: args})
	o.mu.Unlock()
	return nil
}

// Drain returns and clears the queued commands
func (o *Outbox) Drain() []Command {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending := o.pending
	o.pending = nil
	return pending
}
