package websocket

import (
	"errors"
	"fmt"
	"time"

	"github.com/dsimona/estimo/internal/logger"
	"github.com/dsimona/estimo/wire"
)

// DefaultCallTimeout bounds a correlated call when no timeout is given.
const DefaultCallTimeout = 15 * time.Second

// ErrCallTimeout marks a call that got neither reply nor ack in time.
// Timeouts are retryable; the wrapped message names the awaited event.
var ErrCallTimeout = errors.New("call timeout")

// CallOptions tunes a single correlated call.
type CallOptions struct {
	// ReplyEvent overrides the reply event name. Empty selects
	// "<message>_response".
	ReplyEvent string
	// Timeout bounds the wait. Zero selects DefaultCallTimeout for Call;
	// for CallAck a zero Timeout waits indefinitely for the transport ack.
	Timeout time.Duration
}

// replyEventFor resolves the reply event name for a message.
func replyEventFor(message string, opts CallOptions) string {
	if opts.ReplyEvent != "" {
		return opts.ReplyEvent
	}
	return message + "_response"
}

// Call sends a named message and waits for its correlated reply event.
//
// The one-shot reply listener is registered before the message is emitted, so
// a reply cannot slip past even if the server answers immediately. Exactly
// one outcome terminates the call: the decoded reply, or a timeout error that
// disarms the listener. Concurrent calls are independent; each owns its own
// listener and timer, even for the same message name.
func (c *Channel) Call(message string, opts CallOptions, data ...any) (wire.Reply, error) {
	cn, err := c.socket()
	if err != nil {
		return wire.Reply{}, err
	}

	replyEvent := replyEventFor(message, opts)
	replyCh := make(chan any, 1)
	listener := func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}
		select {
		case replyCh <- payload:
		default:
		}
	}
	cn.Once(replyEvent, listener)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if c.debug {
		logger.Tracef("call %s (awaiting %s)", message, replyEvent)
	}
	cn.Emit(message, data...)

	select {
	case payload := <-replyCh:
		rep, err := wire.DecodeReply(payload)
		if err != nil {
			// Malformed replies are an error outcome, not a fault.
			return wire.Reply{}, err
		}
		return rep, nil
	case <-timer.C:
		cn.Off(replyEvent, listener)
		return wire.Reply{}, fmt.Errorf("%w: did not receive %s event", ErrCallTimeout, replyEvent)
	}
}

// CallAck is the fire-and-forget variant of Call: it resolves with the
// elapsed time once the transport acknowledges delivery, without waiting for
// any application reply. With a zero Timeout it waits indefinitely.
func (c *Channel) CallAck(message string, opts CallOptions, data ...any) (time.Duration, error) {
	cn, err := c.socket()
	if err != nil {
		return 0, err
	}

	ackCh := make(chan time.Duration, 1)
	start := time.Now()
	args := append(append([]any{}, data...), func(_ []any, _ error) {
		select {
		case ackCh <- time.Since(start):
		default:
		}
	})

	var timerC <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	if c.debug {
		logger.Tracef("call %s (ack only)", message)
	}
	cn.Emit(message, args...)

	select {
	case elapsed := <-ackCh:
		return elapsed, nil
	case <-timerC:
		return 0, fmt.Errorf("%w: no transport ack for %s", ErrCallTimeout, message)
	}
}
