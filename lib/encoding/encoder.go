// Package encoding serializes activation traces as signed msgpack so a
// trace written by one run can be verified before it is read back.
package encoding

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrInvalidFormat    = errors.New("encoding: invalid format")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
)

// Encoder signs and verifies msgpack payloads with HMAC-SHA256.
// The encoding is base64(payload) + "." + base64(signature).
type Encoder struct {
	key []byte
}

// NewEncoder creates an encoder with the given key.
// Keys shorter than 32 bytes are stretched with SHA-256.
func NewEncoder(key []byte) (*Encoder, error) {
	if len(key) == 0 {
		return nil, errors.New("encoding: empty key")
	}
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}
	return &Encoder{key: key}, nil
}

// Encode marshals v with msgpack and signs the result.
func (e *Encoder) Encode(v any) (string, error) {
	packed, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	return e.sign(packed), nil
}

// Decode verifies the signature and unmarshals into v.
func (e *Encoder) Decode(encoded string, v any) error {
	packed, err := e.verify(encoded)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(packed, v)
}

// sign creates a signed (but visible) encoding: base64.signature
func (e *Encoder) sign(data []byte) string {
	b64 := base64.RawURLEncoding.EncodeToString(data)
	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16]) // 16 bytes = 128 bits
	return b64 + "." + sig
}

// verify verifies and decodes a signed string
func (e *Encoder) verify(encoded string) ([]byte, error) {
	parts := strings.SplitN(strings.TrimSpace(encoded), ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	expected := mac.Sum(nil)[:16]

	if !hmac.Equal(sig, expected) {
		return nil, ErrSignatureInvalid
	}

	return data, nil
}
