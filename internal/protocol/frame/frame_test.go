package frame

import (
	"testing"
)

func TestCRC16CCITTEmpty(t *testing.T) {
	if got := CRC16CCITT(nil); got != 0xFFFF {
		t.Fatalf("CRC16CCITT(nil) = %#04x, want 0xFFFF", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []float32{1.0, 2.0, -3.5, 0}
	encoded := Encode(values)
	decoded, err := Decode(encoded, len(values))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(values) {
		t.Fatalf("decoded len = %d, want %d", len(decoded), len(values))
	}
	for i := range values {
		if decoded[i] != values[i] {
			t.Fatalf("decoded[%d] = %v, want %v", i, decoded[i], values[i])
		}
	}
}

func TestDecodeFixedVector(t *testing.T) {
	// [00 00 80 3f 00 00 00 40 xx yy] where xx yy is the CRC of the first 8 bytes.
	payload := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x40}
	crc := CRC16CCITT(payload)
	buf := append(append([]byte{}, payload...), byte(crc), byte(crc>>8))

	decoded, err := Decode(buf, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[0] != 1.0 || decoded[1] != 2.0 {
		t.Fatalf("decoded = %v, want [1 2]", decoded)
	}
}

func TestDecodeTooShort(t *testing.T) {
	if _, err := Decode([]byte{0x01}, 1); err != ErrShapeInvalid {
		t.Fatalf("err = %v, want ErrShapeInvalid", err)
	}
}

func TestDecodeCorrupted(t *testing.T) {
	encoded := Encode([]float32{1.0, 2.0})
	encoded[0] ^= 0x01 // flip one payload bit
	if _, err := Decode(encoded, 2); err != ErrCorrupt {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestDecodeWrongShapeValidCRC(t *testing.T) {
	encoded := Encode([]float32{1.0, 2.0})
	if _, err := Decode(encoded, 3); err != ErrShapeInvalid {
		t.Fatalf("err = %v, want ErrShapeInvalid", err)
	}
}

func TestEncodedSize(t *testing.T) {
	if got := EncodedSize(4); got != 4*4+2 {
		t.Fatalf("EncodedSize(4) = %d", got)
	}
}
