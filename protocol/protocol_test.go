package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	require.Equal(t, "MOVE 10 20\n", Encode("MOVE", []string{"10", "20"}))
	require.Equal(t, "PING\n", Encode("PING", nil))
	require.Equal(t, "RESET\n", Encode("RESET", []string{}))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		payload string
		ok      bool
	}{
		{"plain frame", "<ACK>", "ACK", true},
		{"surrounded by noise", "garbage<OK>trailing", "OK", true},
		{"last start wins", "noise<ignored<ACK1>trailing", "ACK1", true},
		{"empty payload", "<>", "", true},
		{"no delimiters", "just a line", "", false},
		{"start only", "<unterminated", "", false},
		{"end only", "dangling>", "", false},
		{"end before start", ">reversed<", "", false},
		{"empty line", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, ok := Decode(tt.line, DefaultStartEnclosing, DefaultEndEnclosing)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.payload, payload)
		})
	}
}

func TestDecodeCustomDelimiters(t *testing.T) {
	payload, ok := Decode("noise[PONG]tail", '[', ']')
	require.True(t, ok)
	require.Equal(t, "PONG", payload)
}
