// Package signal implements the process-wide cancellation collaborator
// described in spec §5/§6: a single atomic counter, written only by
// external signal delivery, read lock-free by the Frame Engine between
// chunks.
package signal

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// State is the cooperative shutdown state the engine polls between
// chunks.
type State int32

const (
	// Continue means no interruption has been requested.
	Continue State = iota
	// RequestedOnce means the user asked once (e.g. a single SIGINT);
	// the engine should print a prompt exactly once and keep going.
	RequestedOnce
	// Forced means cancellation escalated; the engine must abort the
	// in-flight transfer immediately with ErrInterrupted.
	Forced
)

// Controller owns the process-wide counter and the one-call
// acknowledgment that keeps RequestedOnce "sticky" (the prompt is only
// emitted once) until a second request escalates to Forced.
type Controller struct {
	state    atomic.Int32
	prompted atomic.Bool
	ch       chan os.Signal
}

// NewController creates a Controller that is not yet wired to any
// signal source; call Listen to hook it up to os/signal delivery, or
// drive it directly in tests via Request.
func NewController() *Controller {
	return &Controller{}
}

// Listen registers the controller to receive the given OS signals
// (typically os.Interrupt) and escalates Continue -> RequestedOnce ->
// Forced on each delivery. It returns a Stop function that unregisters
// the handler.
func (c *Controller) Listen(sig ...os.Signal) (stop func()) {
	c.ch = make(chan os.Signal, 1)
	signal.Notify(c.ch, sig...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-c.ch:
				c.Request()
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		signal.Stop(c.ch)
	}
}

// Request escalates the state by one step: Continue -> RequestedOnce,
// RequestedOnce or beyond -> Forced. It is safe to call concurrently
// with Current/AcknowledgePrompt.
func (c *Controller) Request() {
	for {
		cur := State(c.state.Load())
		next := cur
		switch cur {
		case Continue:
			next = RequestedOnce
		default:
			next = Forced
		}
		if c.state.CompareAndSwap(int32(cur), int32(next)) {
			return
		}
	}
}

// Current reads the cancellation state lock-free.
func (c *Controller) Current() State {
	return State(c.state.Load())
}

// AcknowledgePrompt marks that the RequestedOnce prompt has been shown
// to the user. It returns true the first time it is called since the
// state last entered RequestedOnce, so the engine emits the
// user-visible prompt exactly once per request.
func (c *Controller) AcknowledgePrompt() (firstTime bool) {
	return !c.prompted.Swap(true)
}

// reset is used by tests to return the controller to Continue.
func (c *Controller) reset() {
	c.state.Store(int32(Continue))
	c.prompted.Store(false)
}
