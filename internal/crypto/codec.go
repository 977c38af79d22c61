// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrDecrypt is returned when a ciphertext cannot be opened.
	ErrDecrypt = errors.New("decrypt clip data")
	// ErrEmptyPassphrase is returned when no passphrase is configured.
	ErrEmptyPassphrase = errors.New("empty encryption passphrase")
)

// kdfSalt is fixed: every device sharing a passphrase must derive the same key.
var kdfSalt = []byte("go-clip-keeper/clip-key/v1")

// aesCodec is the private implementation of [CipherCodec].
type aesCodec struct {
	// Argon2id tuning parameters.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32

	mu   sync.Mutex
	keys map[string][]byte
}

// NewCipherCodec constructs a [CipherCodec] that derives its AES-256 key from
// the passphrase with Argon2id:
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
//
// Derived keys are cached per passphrase for the lifetime of the codec.
func NewCipherCodec() CipherCodec {
	return &aesCodec{
		argonTime:    1,
		argonMemory:  64 * 1024,
		argonThreads: 4,
		argonKeyLen:  32,
		keys:         make(map[string][]byte),
	}
}

// Encrypt implements [CipherCodec]. The 12-byte GCM nonce is
// HMAC-SHA256(key, plaintext) truncated, which makes the output a pure
// function of (plaintext, passphrase) while the GCM tag still authenticates
// the payload.
func (c *aesCodec) Encrypt(plaintext, passphrase string) (string, error) {
	gcm, key, err := c.aead(passphrase)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("nonce:"))
	mac.Write([]byte(plaintext))
	nonce := mac.Sum(nil)[:gcm.NonceSize()]

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	blob := append(nonce, sealed...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt implements [CipherCodec].
func (c *aesCodec) Decrypt(ciphertext, passphrase string) (string, error) {
	gcm, _, err := c.aead(passphrase)
	if err != nil {
		return "", err
	}

	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decode base64: %v", ErrDecrypt, err)
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	nonce, sealed := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}

func (c *aesCodec) aead(passphrase string) (cipher.AEAD, []byte, error) {
	if passphrase == "" {
		return nil, nil, ErrEmptyPassphrase
	}

	key := c.deriveKey(passphrase)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, key, nil
}

func (c *aesCodec) deriveKey(passphrase string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[passphrase]; ok {
		return key
	}

	key := argon2.IDKey([]byte(passphrase), kdfSalt, c.argonTime, c.argonMemory, c.argonThreads, c.argonKeyLen)
	c.keys[passphrase] = key
	return key
}
