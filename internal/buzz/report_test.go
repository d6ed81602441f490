package buzz

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint32
		wantErr error
	}{
		{
			name: "no buttons",
			data: []byte{0x00, 0x00, 0x00, 0x00, 0x00},
			want: 0,
		},
		{
			name: "low byte",
			data: []byte{0x00, 0x00, 0x01, 0x00, 0x00},
			want: 0x000001,
		},
		{
			name: "little-endian low16",
			data: []byte{0x00, 0x00, 0x34, 0x12, 0x00},
			want: 0x001234,
		},
		{
			name: "high byte shifted into bits 16-23",
			data: []byte{0x00, 0x00, 0x00, 0x00, 0x0F},
			want: 0x0F0000,
		},
		{
			name: "all fields combined",
			data: []byte{0xAA, 0xBB, 0xFF, 0xFF, 0x0F},
			want: 0x0FFFFF,
		},
		{
			name: "longer report uses only the first five bytes",
			data: []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xFF},
			want: 0x000001,
		},
		{
			name:    "empty report",
			data:    []byte{},
			wantErr: ErrShortReport,
		},
		{
			name:    "keep-alive short report",
			data:    []byte{0x00, 0x00, 0x01, 0x00},
			wantErr: ErrShortReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReport(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseReport() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReport() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseReport() = 0x%06X, want 0x%06X", got, tt.want)
			}
		})
	}
}

func TestParseReportRoundTripsEveryButton(t *testing.T) {
	// For each button, a report encoding exactly its mask decodes to
	// exactly its mask.
	for _, btn := range Buttons {
		data := []byte{
			0x00, 0x00,
			byte(btn.Mask), byte(btn.Mask >> 8), byte(btn.Mask >> 16),
		}
		got, err := ParseReport(data)
		if err != nil {
			t.Fatalf("%s: ParseReport() error: %v", btn.Name, err)
		}
		if got != btn.Mask {
			t.Errorf("%s: ParseReport() = 0x%06X, want 0x%06X", btn.Name, got, btn.Mask)
		}
	}
}

func TestLedStateEncode(t *testing.T) {
	tests := []struct {
		name  string
		state LedState
		want  []byte
	}{
		{
			name:  "all off",
			state: LedState{},
			want:  []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:  "all on",
			state: LedState{Player1: true, Player2: true, Player3: true, Player4: true},
			want:  []byte{0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00},
		},
		{
			name:  "players 1 and 3",
			state: LedState{Player1: true, Player3: true},
			want:  []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Encode(); !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = %v, want %v", got, tt.want)
			}
			// The fallback form is the primary minus the trailing zeros.
			if got := tt.state.EncodeShort(); !bytes.Equal(got, tt.want[:6]) {
				t.Errorf("EncodeShort() = %v, want %v", got, tt.want[:6])
			}
		})
	}
}

func TestLedStatePlayers(t *testing.T) {
	s := LedState{Player2: true, Player4: true}
	want := [4]bool{false, true, false, true}
	if got := s.Players(); got != want {
		t.Errorf("Players() = %v, want %v", got, want)
	}
}
