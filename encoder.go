package blockload

import (
	"errors"
	"fmt"

	"github.com/pthm/blockload/lib/encoding"
)

// TraceVersion is the current trace file format.
const TraceVersion = 1

// TraceFile is the persisted form of one page's activation trace.
type TraceFile struct {
	Version int     `msgpack:"v"`
	Page    string  `msgpack:"p"`
	Events  []Event `msgpack:"e"`
}

// EncodeTrace signs and serializes a trace.
func EncodeTrace(key []byte, page string, events []Event) (string, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return "", err
	}
	return enc.Encode(TraceFile{Version: TraceVersion, Page: page, Events: events})
}

// DecodeTrace verifies and deserializes a trace.
func DecodeTrace(key []byte, encoded string) (*TraceFile, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return nil, err
	}
	var tf TraceFile
	if err := enc.Decode(encoded, &tf); err != nil {
		return nil, wrapEncodingError(err)
	}
	if tf.Version != TraceVersion {
		return nil, fmt.Errorf("%w: trace version %d", ErrInvalidTrace, tf.Version)
	}
	return &tf, nil
}

// ErrInvalidTrace is returned for traces that fail verification or decoding.
var ErrInvalidTrace = errors.New("blockload: invalid trace")

// wrapEncodingError wraps encoding package errors with ErrInvalidTrace.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) || errors.Is(err, encoding.ErrSignatureInvalid) {
		return fmt.Errorf("%w: %w", ErrInvalidTrace, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidTrace, err)
}
