package sdk

import (
	"github.com/dsimona/estimo/wire"
)

// AlertType categorizes a transient alert.
type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "danger"
)

// AlertData is a transient user-facing notification. At most one alert is
// visible at a time; a newer one supersedes an older one without queuing.
type AlertData struct {
	// ID identifies one publication of an alert. Scheduled retractions
	// match on it, so a stale timer can never clear a newer alert.
	ID string
	// Type is the alert category.
	Type AlertType
	// Text is the display text.
	Text string
}

// AppState is the shared application state snapshot. It is a value: the
// reducer returns fresh copies and nothing mutates a published state in
// place, so observers can rely on comparing snapshots.
type AppState struct {
	// Connected mirrors the channel's connectivity. The channel is the
	// source of truth; this field converges to it via CONNECTED dispatches.
	Connected bool
	// UserInfo is the current identity (ID 0 = anonymous). Replaced whole,
	// never patched.
	UserInfo wire.UserInfo
	// EstimationInProgress reports a running estimation.
	EstimationInProgress bool
	// EstimationError is the last estimation error message, if any.
	EstimationError string
	// Alert is the currently visible alert, or nil.
	Alert *AlertData
}

// Action is the closed set of state transitions. Dispatching anything else
// is a programming error, made unrepresentable by the sealed interface.
type Action interface {
	isAction()
}

// ConnectedAction replaces the connectivity flag.
type ConnectedAction struct {
	Connected bool
}

// UserInfoAction replaces the identity record.
type UserInfoAction struct {
	UserInfo wire.UserInfo
}

// SetAlertAction replaces the visible alert (nil clears it).
type SetAlertAction struct {
	Alert *AlertData
}

func (ConnectedAction) isAction() {}
func (UserInfoAction) isAction()  {}
func (SetAlertAction) isAction()  {}

// reduce computes the next state purely from the previous state and the
// action. state arrives by value, so assigning to its fields builds the next
// snapshot without touching the previous one.
func reduce(state AppState, action Action) AppState {
	switch a := action.(type) {
	case ConnectedAction:
		state.Connected = a.Connected
	case UserInfoAction:
		state.UserInfo = a.UserInfo
	case SetAlertAction:
		state.Alert = a.Alert
	}
	return state
}

// Store holds the application state and is its only legal mutation path.
//
// One Store exists per client. All mutation runs on the store's dispatcher
// goroutine; Dispatch returns after the new state has been published
// synchronously to every current subscriber. Subscribers must not dispatch
// from inside their callback.
type Store struct {
	dispatch *dispatcher

	// Owned by the dispatcher goroutine.
	state   AppState
	subs    map[int64]func(AppState)
	nextSub int64
}

// NewStore creates a store seeded with the given initial state.
func NewStore(initial AppState) *Store {
	return &Store{
		dispatch: newDispatcher(0),
		state:    initial,
		subs:     make(map[int64]func(AppState)),
	}
}

// State returns the current state snapshot.
func (s *Store) State() AppState {
	var state AppState
	_ = s.dispatch.run(func() {
		state = s.state
	})
	return state
}

// Dispatch applies an action and publishes the new state to all subscribers
// before returning. No action is dropped or batched across a dispatch.
func (s *Store) Dispatch(action Action) {
	_ = s.dispatch.run(func() {
		s.apply(action)
	})
}

// apply reduces and publishes. Dispatcher goroutine only.
func (s *Store) apply(action Action) {
	next := reduce(s.state, action)
	s.state = next
	for _, fn := range s.subs {
		fn(next)
	}
}

// Subscribe registers an observer for every published state. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func(AppState)) func() {
	var id int64
	_ = s.dispatch.run(func() {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = fn
	})
	return func() {
		_ = s.dispatch.run(func() {
			delete(s.subs, id)
		})
	}
}
