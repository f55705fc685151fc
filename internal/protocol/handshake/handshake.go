// Package handshake implements the 7-byte fixed negotiation datagram
// exchanged once per session before steady-state frames flow.
//
// Wire layout (all multi-byte fields little-endian):
//
//	offset 0  size 2  num_outputs (u16)
//	offset 2  size 2  num_inputs  (u16)
//	offset 4  size 1  send_type tag (ASCII)
//	offset 5  size 2  local_max_age, seconds truncated to u16
package handshake

import (
	"encoding/binary"
	"errors"

	"github.com/danmuck/vlink/internal/protocol/sendtype"
)

// Size is the fixed wire size of a handshake datagram.
const Size = 7

// ErrWrongSize means the received datagram was not exactly Size bytes.
var ErrWrongSize = errors.New("handshake: datagram is not 7 bytes")

// Message is one side's advertised negotiation parameters.
type Message struct {
	NumOutputs uint16
	NumInputs  uint16
	SendType   sendtype.Type
	MaxAgeSec  uint16
}

// Encode serializes m into a fresh 7-byte buffer.
func Encode(m Message) []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint16(buf[0:2], m.NumOutputs)
	binary.LittleEndian.PutUint16(buf[2:4], m.NumInputs)
	buf[4] = byte(m.SendType)
	binary.LittleEndian.PutUint16(buf[5:7], m.MaxAgeSec)
	return buf
}

// Decode parses a received handshake datagram. It fails only on length;
// an unrecognized send-type tag is still decoded (informational only) and
// left for the caller to judge.
func Decode(b []byte) (Message, error) {
	if len(b) != Size {
		return Message{}, ErrWrongSize
	}
	return Message{
		NumOutputs: binary.LittleEndian.Uint16(b[0:2]),
		NumInputs:  binary.LittleEndian.Uint16(b[2:4]),
		SendType:   sendtype.Type(b[4]),
		MaxAgeSec:  binary.LittleEndian.Uint16(b[5:7]),
	}, nil
}

// ErrWidthMismatch indicates the peer's advertised widths don't cross-check
// against ours.
var ErrWidthMismatch = errors.New("handshake: width mismatch")

// CrossCheck validates that peer's NumInputs/NumOutputs are the mirror of
// ours: peer.NumOutputs == ourNumInputs and peer.NumInputs == ourNumOutputs.
func CrossCheck(peer Message, ourNumInputs, ourNumOutputs uint16) error {
	if peer.NumInputs != ourNumOutputs {
		return ErrWidthMismatch
	}
	if peer.NumOutputs != ourNumInputs {
		return ErrWidthMismatch
	}
	return nil
}
