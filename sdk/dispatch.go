package sdk

import (
	"fmt"
)

// dispatcher serializes state mutation onto a single goroutine.
//
// Collaborators may dispatch from any goroutine; funneling every mutation
// through one queue gives the store the single-threaded, interleaved-only
// execution its reducer contract assumes, without locks around the state.
type dispatcher struct {
	q chan func()
}

func newDispatcher(queueSize int) *dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &dispatcher{
		q: make(chan func(), queueSize),
	}
	go func() {
		for fn := range d.q {
			fn()
		}
	}()
	return d
}

// run executes fn on the dispatcher goroutine and waits for it to finish.
func (d *dispatcher) run(fn func()) error {
	if d == nil {
		return fmt.Errorf("dispatcher not initialized")
	}
	if fn == nil {
		return nil
	}
	done := make(chan struct{})
	d.q <- func() {
		defer close(done)
		fn()
	}
	<-done
	return nil
}
