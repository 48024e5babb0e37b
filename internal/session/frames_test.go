package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Frame
		wantErr bool
	}{
		{
			name:    "flat message",
			payload: `{"type":"message","content":"hi","reply_to_id":"m1","message_type":"text"}`,
			want:    MessageFrame{Content: "hi", ReplyToID: "m1", MessageType: "text"},
		},
		{
			name:    "message fields nested under data",
			payload: `{"type":"message","data":{"content":"hi there"}}`,
			want:    MessageFrame{Content: "hi there"},
		},
		{
			name:    "typing",
			payload: `{"type":"typing"}`,
			want:    TypingFrame{},
		},
		{
			name:    "stop typing",
			payload: `{"type":"stop_typing"}`,
			want:    StopTypingFrame{},
		},
		{
			name:    "read receipt",
			payload: `{"type":"read","message_id":"m42"}`,
			want:    ReadFrame{MessageID: "m42"},
		},
		{
			name:    "read receipt nested",
			payload: `{"type":"read","data":{"message_id":"m43"}}`,
			want:    ReadFrame{MessageID: "m43"},
		},
		{
			name:    "ping",
			payload: `{"type":"ping"}`,
			want:    PingFrame{},
		},
		{
			name:    "unknown kind",
			payload: `{"type":"presence"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `{{{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrame([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
