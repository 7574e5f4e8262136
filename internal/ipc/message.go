package ipc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"pomo/internal/countdown"
)

// MaxMessageSize bounds the payload a single connection may deliver.
const MaxMessageSize = 64

const fieldCommand protowire.Number = 1

// Wire values for the command field.
const (
	wireStart uint64 = 1
	wireStop  uint64 = 2
)

// ErrMalformedMessage is wrapped by every decode failure.
var ErrMalformedMessage = errors.New("malformed message")

// EncodeMessage serializes msg for transmission.
func EncodeMessage(msg countdown.Message) ([]byte, error) {
	var value uint64
	switch msg {
	case countdown.Start:
		value = wireStart
	case countdown.Stop:
		value = wireStop
	default:
		return nil, fmt.Errorf("encode message: unknown message %v", msg)
	}
	b := protowire.AppendTag(nil, fieldCommand, protowire.VarintType)
	return protowire.AppendVarint(b, value), nil
}

// DecodeMessage parses a payload produced by EncodeMessage. Unknown fields
// other than the command are skipped.
func DecodeMessage(b []byte) (countdown.Message, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty payload", ErrMalformedMessage)
	}
	if len(b) > MaxMessageSize {
		return 0, fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrMalformedMessage, len(b), MaxMessageSize)
	}

	var (
		msg  countdown.Message
		seen bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, fmt.Errorf("%w: %v", ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]

		if num != fieldCommand {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, fmt.Errorf("%w: field %d: %v", ErrMalformedMessage, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		if typ != protowire.VarintType {
			return 0, fmt.Errorf("%w: command has wire type %d", ErrMalformedMessage, typ)
		}
		if seen {
			return 0, fmt.Errorf("%w: duplicate command field", ErrMalformedMessage)
		}
		value, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, fmt.Errorf("%w: command: %v", ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]

		switch value {
		case wireStart:
			msg = countdown.Start
		case wireStop:
			msg = countdown.Stop
		default:
			return 0, fmt.Errorf("%w: unknown command %d", ErrMalformedMessage, value)
		}
		seen = true
	}

	if !seen {
		return 0, fmt.Errorf("%w: missing command field", ErrMalformedMessage)
	}
	return msg, nil
}
