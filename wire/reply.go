package wire

import (
	"fmt"
)

// Status discriminates the two reply outcomes carried on the wire.
type Status string

const (
	// StatusSuccess marks a reply carrying an application-level success value.
	StatusSuccess Status = "success"
	// StatusError marks a reply carrying an application-level error message.
	StatusError Status = "error"
)

// Reply is the normalized outcome of a correlated channel call.
//
// The server encodes every reply as a positional ["success"|"error", value]
// pair. DecodeReply unpacks that pair exactly once at the transport boundary;
// everything above it works with this tagged shape.
type Reply struct {
	// Status is the reply tag.
	Status Status
	// Value is the success payload (decoded JSON value, typically a map).
	Value any
	// Message is the error annotation when Status is StatusError.
	Message string
}

// OK reports whether the reply carries a success value.
func (r Reply) OK() bool {
	return r.Status == StatusSuccess
}

// SuccessReply wraps a value in a success reply.
func SuccessReply(value any) Reply {
	return Reply{Status: StatusSuccess, Value: value}
}

// ErrorReply wraps a message in an error reply.
func ErrorReply(message string) Reply {
	return Reply{Status: StatusError, Message: message}
}

// DecodeReply decodes a raw reply payload into a Reply.
//
// The payload must be a two-element array whose first element is one of the
// Status tags. Anything else is rejected; callers treat the returned error as
// an error outcome for the call, not a fault.
func DecodeReply(payload any) (Reply, error) {
	pair, ok := payload.([]any)
	if !ok || len(pair) != 2 {
		return Reply{}, fmt.Errorf("couldn't unpack reply: %v", payload)
	}
	tag, ok := pair[0].(string)
	if !ok {
		return Reply{}, fmt.Errorf("couldn't unpack reply: non-string status %v", pair[0])
	}
	switch Status(tag) {
	case StatusSuccess:
		return Reply{Status: StatusSuccess, Value: pair[1]}, nil
	case StatusError:
		msg, ok := pair[1].(string)
		if !ok {
			msg = fmt.Sprintf("%v", pair[1])
		}
		return Reply{Status: StatusError, Message: msg}, nil
	default:
		return Reply{}, fmt.Errorf("couldn't unpack reply: unknown status %q", tag)
	}
}
