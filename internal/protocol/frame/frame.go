// Package frame implements the steady-state payload wire format: a
// little-endian vector of float32 samples followed by a CRC-16/CCITT
// checksum over the preceding bytes.
package frame

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	crcInit uint16 = 0xFFFF
	crcPoly uint16 = 0x1021

	// SampleSize is the wire size of one float32 sample.
	SampleSize = 4
	// CRCSize is the wire size of the trailing checksum.
	CRCSize = 2
)

var (
	// ErrShapeInvalid means the datagram's length is incompatible with the
	// negotiated vector width (too short to hold a CRC, or the payload
	// length left over after the CRC doesn't match the expected width).
	ErrShapeInvalid = errors.New("frame: shape invalid")
	// ErrCorrupt means the trailing CRC did not match the payload.
	ErrCorrupt = errors.New("frame: corrupt")
)

// CRC16CCITT computes CRC-16/CCITT (poly 0x1021, init 0xFFFF, no reflection,
// no final XOR) over data, byte-wise MSB-first.
func CRC16CCITT(data []byte) uint16 {
	crc := crcInit
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// EncodedSize returns the wire size of a payload frame carrying width
// float32 samples.
func EncodedSize(width int) int {
	return width*SampleSize + CRCSize
}

// Encode serializes values as little-endian float32s followed by their
// CRC-16/CCITT, little-endian.
func Encode(values []float32) []byte {
	buf := make([]byte, EncodedSize(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*SampleSize:], math.Float32bits(v))
	}
	payload := buf[:len(values)*SampleSize]
	crc := CRC16CCITT(payload)
	binary.LittleEndian.PutUint16(buf[len(payload):], crc)
	return buf
}

// Decode validates and parses a received datagram. It succeeds iff
// len(b) >= CRCSize, the trailing two bytes match the CRC-16/CCITT of the
// preceding bytes, and the remaining length equals expectedWidth*SampleSize.
func Decode(b []byte, expectedWidth int) ([]float32, error) {
	if len(b) < CRCSize {
		return nil, ErrShapeInvalid
	}
	payload := b[:len(b)-CRCSize]
	wantCRC := binary.LittleEndian.Uint16(b[len(payload):])
	if CRC16CCITT(payload) != wantCRC {
		return nil, ErrCorrupt
	}
	if len(payload) != expectedWidth*SampleSize {
		return nil, ErrShapeInvalid
	}
	values := make([]float32, expectedWidth)
	for i := range values {
		bits := binary.LittleEndian.Uint32(payload[i*SampleSize:])
		values[i] = math.Float32frombits(bits)
	}
	return values, nil
}
