// Package codec normalizes page content and URLs to UTF-8 text.
//
// Callers state what they hold with Bytes or Text; Normalize never guesses the
// representation from the value itself.
package codec

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrEncoding is returned when the input is neither text nor valid UTF-8 bytes.
var ErrEncoding = errors.New("incorrect input parameter for string encoder")

type kind uint8

const (
	kindNone kind = iota
	kindBytes
	kindText
)

// Input is either a raw byte sequence or text. The zero value is neither.
type Input struct {
	kind kind
	raw  []byte
	text string
}

// Bytes wraps raw bytes that are expected to hold UTF-8.
func Bytes(b []byte) Input {
	return Input{kind: kindBytes, raw: b}
}

// Text wraps a string.
func Text(s string) Input {
	return Input{kind: kindText, text: s}
}

// Normalize returns the input as validated UTF-8 text.
func Normalize(in Input) (string, error) {
	switch in.kind {
	case kindBytes:
		out, _, err := transform.Bytes(encoding.UTF8Validator, in.raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return string(out), nil
	case kindText:
		out, _, err := transform.String(encoding.UTF8Validator, in.text)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return out, nil
	default:
		return "", ErrEncoding
	}
}

// Encode returns the UTF-8 bytes of s, rejecting strings that carry invalid sequences.
func Encode(s string) ([]byte, error) {
	text, err := Normalize(Text(s))
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
