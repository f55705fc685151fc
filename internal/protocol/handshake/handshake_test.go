package handshake

import (
	"testing"

	"github.com/danmuck/vlink/internal/protocol/sendtype"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := Message{NumOutputs: 2, NumInputs: 4, SendType: sendtype.Float32, MaxAgeSec: 3}
	encoded := Encode(msg)
	if len(encoded) != Size {
		t.Fatalf("encoded len = %d, want %d", len(encoded), Size)
	}
	want := []byte{0x02, 0x00, 0x04, 0x00, 'f', 0x03, 0x00}
	for i := range want {
		if encoded[i] != want[i] {
			t.Fatalf("encoded[%d] = %#02x, want %#02x", i, encoded[i], want[i])
		}
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != msg {
		t.Fatalf("decoded = %+v, want %+v", decoded, msg)
	}
}

func TestDecodeWrongSize(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err != ErrWrongSize {
		t.Fatalf("err = %v, want ErrWrongSize", err)
	}
}

func TestCrossCheckSuccess(t *testing.T) {
	// Scenario S1: our widths are inputs=4, outputs=2.
	peer := Message{NumOutputs: 4, NumInputs: 2, SendType: sendtype.Float32, MaxAgeSec: 3}
	if err := CrossCheck(peer, 4, 2); err != nil {
		t.Fatalf("CrossCheck: %v", err)
	}
}

func TestCrossCheckMismatch(t *testing.T) {
	// Scenario S2: peer claims 3 outputs instead of matching our 4 inputs.
	peer := Message{NumOutputs: 3, NumInputs: 2, SendType: sendtype.Float32, MaxAgeSec: 3}
	if err := CrossCheck(peer, 4, 2); err != ErrWidthMismatch {
		t.Fatalf("err = %v, want ErrWidthMismatch", err)
	}
}
