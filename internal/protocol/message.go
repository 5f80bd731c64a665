package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type discriminates wire messages. Every frame is a single JSON object
// carrying a "type" field; the remaining fields depend on the type.
type Type string

const (
	TypePing      Type = "ping"
	TypePong      Type = "pong"
	TypeStart     Type = "start"
	TypeReset     Type = "reset"
	TypeSplit     Type = "split"
	TypeEventHeat Type = "event-heat"
	TypeClear     Type = "clear"

	// Older servers emit the event/heat update without the hyphen.
	typeEventHeatAlias Type = "eventheat"
)

var (
	ErrMissingType  = errors.New("protocol: missing message type")
	ErrUnknownType  = errors.New("protocol: unknown message type")
	ErrMissingField = errors.New("protocol: missing required field")
)

// Ping carries the sender's local clock in milliseconds. Either side may
// originate a ping; the receiver echoes the value back in a Pong.
type Ping struct {
	Type Type  `json:"type"`
	Time int64 `json:"time"`
}

// Pong answers a Ping. ClientPingTime is the echoed Ping.Time,
// ServerTime is the responder's clock at reply time.
type Pong struct {
	Type           Type  `json:"type"`
	ClientPingTime int64 `json:"client_ping_time"`
	ServerTime     int64 `json:"server_time"`
}

// Start commands a race start. Timestamp is the synchronized start instant;
// it is optional because a start can arrive before synchronization completes.
type Start struct {
	Type      Type   `json:"type"`
	Timestamp *int64 `json:"timestamp,omitempty"`
	Event     string `json:"event,omitempty"`
	Heat      string `json:"heat,omitempty"`
}

// Reset commands a full stopwatch reset. No payload.
type Reset struct {
	Type Type `json:"type"`
}

// Split reports a lane's split. Outbound, Timestamp is the synchronized time
// of transmission; inbound, it is another lane's reported instant and Time
// carries the pre-formatted display string.
type Split struct {
	Type      Type   `json:"type"`
	Lane      int    `json:"lane"`
	Timestamp int64  `json:"timestamp"`
	Time      string `json:"time,omitempty"`
}

// EventHeat updates the event/heat labels shown on the device.
type EventHeat struct {
	Type  Type   `json:"type"`
	Event string `json:"event"`
	Heat  string `json:"heat"`
}

// Clear wipes the remote split table and event/heat labels. No payload.
type Clear struct {
	Type Type `json:"type"`
}

func NewPing(localMillis int64) Ping {
	return Ping{Type: TypePing, Time: localMillis}
}

func NewPong(clientPingTime, serverTime int64) Pong {
	return Pong{Type: TypePong, ClientPingTime: clientPingTime, ServerTime: serverTime}
}

func NewStart(timestamp int64, event, heat string) Start {
	return Start{Type: TypeStart, Timestamp: &timestamp, Event: event, Heat: heat}
}

func NewSplit(lane int, timestamp int64, formatted string) Split {
	return Split{Type: TypeSplit, Lane: lane, Timestamp: timestamp, Time: formatted}
}

// Encode marshals an outbound message to a single JSON text frame.
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}
	return data, nil
}

// Decode parses an inbound frame into one of the typed messages above.
// The envelope is decoded first; the payload struct is chosen by the
// type discriminator and validated for required fields.
func Decode(data []byte) (any, error) {
	var env struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode envelope: %w", err)
	}

	switch env.Type {
	case "":
		return nil, ErrMissingType

	case TypePing:
		var aux struct {
			Time *int64 `json:"time"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("protocol: decode ping: %w", err)
		}
		if aux.Time == nil {
			return nil, fmt.Errorf("%w: ping.time", ErrMissingField)
		}
		return Ping{Type: TypePing, Time: *aux.Time}, nil

	case TypePong:
		var aux struct {
			ClientPingTime *int64 `json:"client_ping_time"`
			ServerTime     *int64 `json:"server_time"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("protocol: decode pong: %w", err)
		}
		if aux.ClientPingTime == nil {
			return nil, fmt.Errorf("%w: pong.client_ping_time", ErrMissingField)
		}
		if aux.ServerTime == nil {
			return nil, fmt.Errorf("%w: pong.server_time", ErrMissingField)
		}
		return Pong{Type: TypePong, ClientPingTime: *aux.ClientPingTime, ServerTime: *aux.ServerTime}, nil

	case TypeStart:
		var msg Start
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("protocol: decode start: %w", err)
		}
		msg.Type = TypeStart
		return msg, nil

	case TypeReset:
		return Reset{Type: TypeReset}, nil

	case TypeSplit:
		var aux struct {
			Lane      *int   `json:"lane"`
			Timestamp *int64 `json:"timestamp"`
			Time      string `json:"time"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("protocol: decode split: %w", err)
		}
		if aux.Lane == nil {
			return nil, fmt.Errorf("%w: split.lane", ErrMissingField)
		}
		if aux.Timestamp == nil {
			return nil, fmt.Errorf("%w: split.timestamp", ErrMissingField)
		}
		return Split{Type: TypeSplit, Lane: *aux.Lane, Timestamp: *aux.Timestamp, Time: aux.Time}, nil

	case TypeEventHeat, typeEventHeatAlias:
		var msg EventHeat
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("protocol: decode event-heat: %w", err)
		}
		msg.Type = TypeEventHeat
		return msg, nil

	case TypeClear:
		return Clear{Type: TypeClear}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
