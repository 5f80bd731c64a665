package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	ts := int64(1234567890)

	tests := []struct {
		name string
		data string
		want any
	}{
		{
			name: "ping",
			data: `{"type":"ping","time":9000}`,
			want: Ping{Type: TypePing, Time: 9000},
		},
		{
			name: "pong",
			data: `{"type":"pong","client_ping_time":9000,"server_time":1234567890}`,
			want: Pong{Type: TypePong, ClientPingTime: 9000, ServerTime: 1234567890},
		},
		{
			name: "start with timestamp",
			data: `{"type":"start","timestamp":1234567890,"event":"50m Free","heat":"3"}`,
			want: Start{Type: TypeStart, Timestamp: &ts, Event: "50m Free", Heat: "3"},
		},
		{
			name: "start without timestamp",
			data: `{"type":"start"}`,
			want: Start{Type: TypeStart},
		},
		{
			name: "reset",
			data: `{"type":"reset"}`,
			want: Reset{Type: TypeReset},
		},
		{
			name: "split",
			data: `{"type":"split","lane":3,"timestamp":1234567890,"time":"01:02:45"}`,
			want: Split{Type: TypeSplit, Lane: 3, Timestamp: 1234567890, Time: "01:02:45"},
		},
		{
			name: "split lane zero",
			data: `{"type":"split","lane":0,"timestamp":5}`,
			want: Split{Type: TypeSplit, Lane: 0, Timestamp: 5},
		},
		{
			name: "event-heat",
			data: `{"type":"event-heat","event":"100m Back","heat":"1"}`,
			want: EventHeat{Type: TypeEventHeat, Event: "100m Back", Heat: "1"},
		},
		{
			name: "event-heat alias",
			data: `{"type":"eventheat","event":"100m Back","heat":"1"}`,
			want: EventHeat{Type: TypeEventHeat, Event: "100m Back", Heat: "1"},
		},
		{
			name: "clear",
			data: `{"type":"clear"}`,
			want: Clear{Type: TypeClear},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode(%s) error: %v", tt.data, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode(%s) mismatch (-want +got):\n%s", tt.data, diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"malformed json", `{"type":`, nil},
		{"missing type", `{"time":9000}`, ErrMissingType},
		{"unknown type", `{"type":"warp"}`, ErrUnknownType},
		{"ping without time", `{"type":"ping"}`, ErrMissingField},
		{"pong without server_time", `{"type":"pong","client_ping_time":9000}`, ErrMissingField},
		{"pong without client_ping_time", `{"type":"pong","server_time":1}`, ErrMissingField},
		{"split without lane", `{"type":"split","timestamp":5}`, ErrMissingField},
		{"split without timestamp", `{"type":"split","lane":2}`, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatalf("Decode(%s) = %#v, want error", tt.data, got)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%s) error = %v, want %v", tt.data, err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeOutbound(t *testing.T) {
	split := NewSplit(4, 777000, "00:12:34")
	data, err := Encode(split)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(split, got); diff != "" {
		t.Errorf("split round trip mismatch (-want +got):\n%s", diff)
	}

	start := NewStart(555000, "50m Fly", "2")
	data, err = Encode(start)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err = Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(start, got); diff != "" {
		t.Errorf("start round trip mismatch (-want +got):\n%s", diff)
	}
}
