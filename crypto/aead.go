// Package crypto implements the optional AEAD encryption of Data frame
// inner payloads (spec.md §4.5). Outer routing headers are never touched
// by this package — callers seal/open only the payload region, leaving
// broadcast detection possible without holding a per-OBU key.
package crypto

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed is returned when authentication fails on Open. The
// caller must log at WARN and drop the frame; there is no retry.
var ErrDecryptionFailed = errors.New("crypto: decryption failed")

// KeySize is the required pre-shared key length for chacha20poly1305.
const KeySize = chacha20poly1305.KeySize

// Seal encrypts plaintext under key, returning nonce||ciphertext. A fresh
// random nonce is drawn per call via crypto/rand, satisfying the
// spec's "nonce unique per (key, frame)" requirement without any
// per-session counter state.
func Seal(key [KeySize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Open authenticates and decrypts a nonce||ciphertext blob produced by
// Seal. Returns ErrDecryptionFailed on any authentication failure or
// malformed input.
func Open(key [KeySize]byte, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
