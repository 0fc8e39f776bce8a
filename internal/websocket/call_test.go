package websocket

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dsimona/estimo/wire"
)

// fakeConn is an in-process stand-in for the Socket.IO socket.
type fakeConn struct {
	mu        sync.Mutex
	on        map[string][]func(args ...any)
	once      map[string][]func(args ...any)
	onEmit    func(event string, args []any)
	connected bool
	closed    bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		on:        make(map[string][]func(args ...any)),
		once:      make(map[string][]func(args ...any)),
		connected: true,
	}
}

func (f *fakeConn) Emit(event string, args ...any) {
	f.mu.Lock()
	hook := f.onEmit
	f.mu.Unlock()
	if hook != nil {
		hook(event, args)
	}
}

func (f *fakeConn) On(event string, listener func(args ...any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on[event] = append(f.on[event], listener)
}

func (f *fakeConn) Once(event string, listener func(args ...any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.once[event] = append(f.once[event], listener)
}

func (f *fakeConn) Off(event string, listener func(args ...any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := reflect.ValueOf(listener).Pointer()
	kept := f.once[event][:0]
	for _, l := range f.once[event] {
		if reflect.ValueOf(l).Pointer() != target {
			kept = append(kept, l)
		}
	}
	f.once[event] = kept
}

func (f *fakeConn) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.closed = true
}

// fire delivers an inbound event to all registered listeners, consuming the
// one-shot ones.
func (f *fakeConn) fire(event string, args ...any) {
	f.mu.Lock()
	listeners := append([]func(args ...any){}, f.on[event]...)
	listeners = append(listeners, f.once[event]...)
	f.once[event] = nil
	f.mu.Unlock()
	for _, l := range listeners {
		l(args...)
	}
}

func (f *fakeConn) onceCount(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.once[event])
}

func newTestChannel(fc *fakeConn) *Channel {
	ch := NewChannel("http://example.invalid", "/socket.io", false)
	ch.SetDialer(func() (Conn, error) {
		return fc, nil
	})
	return ch
}

func TestCall_SuccessReply(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	// Reply synchronously from inside Emit: the listener must already be
	// registered or the reply would be lost.
	fc.onEmit = func(event string, args []any) {
		if event == "userinfo" {
			fc.fire("userinfo_response", []any{"success", map[string]any{"user": map[string]any{"id": float64(1)}}})
		}
	}
	ch := newTestChannel(fc)

	rep, err := ch.Call("userinfo", CallOptions{})
	require.NoError(t, err)
	require.True(t, rep.OK())
	require.Equal(t, 0, fc.onceCount("userinfo_response"))
}

func TestCall_ErrorReply(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	fc.onEmit = func(event string, args []any) {
		fc.fire("login_response", []any{"error", "Invalid password"})
	}
	ch := newTestChannel(fc)

	rep, err := ch.Call("login", CallOptions{})
	require.NoError(t, err)
	require.Equal(t, wire.StatusError, rep.Status)
	require.Equal(t, "Invalid password", rep.Message)
}

func TestCall_TimeoutNamesReplyEvent(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	ch := newTestChannel(fc)

	_, err := ch.Call("hello", CallOptions{Timeout: time.Millisecond})
	require.ErrorIs(t, err, ErrCallTimeout)
	require.Contains(t, err.Error(), "hello_response")
	// The timed-out call must disarm its listener.
	require.Equal(t, 0, fc.onceCount("hello_response"))

	// A reply after the timeout resolves nothing and harms nothing.
	fc.fire("hello_response", []any{"success", "late"})
}

func TestCall_CustomReplyEvent(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	fc.onEmit = func(event string, args []any) {
		fc.fire("greeting", []any{"success", "hi"})
	}
	ch := newTestChannel(fc)

	rep, err := ch.Call("hello", CallOptions{ReplyEvent: "greeting"})
	require.NoError(t, err)
	require.Equal(t, "hi", rep.Value)
}

func TestCall_MalformedReplyIsError(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	fc.onEmit = func(event string, args []any) {
		fc.fire("hello_response", "not a pair")
	}
	ch := newTestChannel(fc)

	_, err := ch.Call("hello", CallOptions{})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCallTimeout)
}

func TestCall_ConcurrentSameMessage(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	ch := newTestChannel(fc)

	var wg sync.WaitGroup
	results := make([]wire.Reply, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ch.Call("userinfo", CallOptions{Timeout: 2 * time.Second})
		}(i)
	}

	// Wait until both calls own a pending listener, then answer once.
	require.Eventually(t, func() bool {
		return fc.onceCount("userinfo_response") == 2
	}, time.Second, time.Millisecond)
	fc.fire("userinfo_response", []any{"success", "both"})

	wg.Wait()
	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "both", results[i].Value)
	}
}

func TestCallAck_ReturnsLatency(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	fc.onEmit = func(event string, args []any) {
		ack, ok := args[len(args)-1].(func([]any, error))
		require.True(t, ok)
		ack(nil, nil)
	}
	ch := newTestChannel(fc)

	elapsed, err := ch.CallAck("ping", CallOptions{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed, time.Duration(0))
}

func TestCallAck_TimeoutWhenNoAck(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	ch := newTestChannel(fc)

	_, err := ch.CallAck("ping", CallOptions{Timeout: time.Millisecond})
	require.ErrorIs(t, err, ErrCallTimeout)
}

func TestChannel_LazyDialAndReconnect(t *testing.T) {
	t.Parallel()

	var dials int
	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	ch := NewChannel("http://example.invalid", "/socket.io", false)
	ch.SetDialer(func() (Conn, error) {
		fc := conns[dials]
		dials++
		return fc, nil
	})

	// No dial before first use.
	require.False(t, ch.IsConnected())
	require.Equal(t, 0, dials)

	_, err := ch.Call("hello", CallOptions{ReplyEvent: "greeting", Timeout: time.Millisecond})
	require.Error(t, err)
	require.Equal(t, 1, dials)
	require.True(t, ch.IsConnected())

	require.NoError(t, ch.Reconnect())
	require.Equal(t, 2, dials)
	require.True(t, conns[0].closed)
	require.False(t, conns[1].closed)
}

func TestChannel_StatusCallback(t *testing.T) {
	t.Parallel()

	fc := newFakeConn()
	ch := newTestChannel(fc)

	var mu sync.Mutex
	var seen []bool
	ch.SetStatusFunc(func(connected bool) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, connected)
	})

	// Force the lazy dial so the status handlers get wired.
	_, err := ch.socket()
	require.NoError(t, err)

	fc.fire("connect")
	fc.fire("disconnect", "transport close")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, seen)
}
