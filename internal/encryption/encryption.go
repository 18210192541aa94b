// Package encryption implements the per-item payload codec: AES-128-CBC with
// PKCS#7 padding, a fresh random IV per encryption, and a base64 text wire
// form of IV || ciphertext.
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"trans-gate/internal/wire"
)

// KeySize is the AES-128 key length in bytes.
const KeySize = 16

// ivSize equals the AES block size; the IV is prepended to every ciphertext.
const ivSize = aes.BlockSize

// CryptoError reports an encryption or decryption failure.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// Codec encrypts and decrypts individual item payloads with a shared key.
type Codec struct {
	key []byte
}

// NewCodec creates a codec for the given 16-byte key.
func NewCodec(key string) (*Codec, error) {
	if len(key) != KeySize {
		return nil, &CryptoError{Op: "init", Err: fmt.Errorf("invalid AES-128 key length: %d bytes (required: %d)", len(key), KeySize)}
	}
	return &Codec{key: []byte(key)}, nil
}

// Encrypt encrypts a raw payload and returns its base64 text wire form.
func (c *Codec) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", &CryptoError{Op: "encrypt", Err: err}
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", &CryptoError{Op: "encrypt", Err: err}
	}

	padded := padPKCS7(plaintext)
	out := make([]byte, ivSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt decodes and decrypts a base64 text wire form back to the raw payload.
func (c *Codec) Decrypt(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Err: fmt.Errorf("invalid base64: %w", err)}
	}
	if len(data) < ivSize {
		return nil, &CryptoError{Op: "decrypt", Err: fmt.Errorf("ciphertext too short: %d bytes", len(data))}
	}

	iv := data[:ivSize]
	ciphertext := data[ivSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, &CryptoError{Op: "decrypt", Err: fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(ciphertext))}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Err: err}
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpadPKCS7(plaintext)
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Err: err}
	}
	return unpadded, nil
}

// VerifyKey reports whether the ciphertext decrypts to exactly the plaintext
// under the local key. Any decode or decrypt failure yields false.
func (c *Codec) VerifyKey(ciphertext, plaintext string) bool {
	decrypted, err := c.Decrypt(ciphertext)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(decrypted, []byte(plaintext)) == 1
}

// DecryptGroups decodes the encrypted entries of a translate request into
// language groups. Any entry that fails to decrypt, blank entries included,
// rejects the whole request: the request is dispatched completely or not at
// all.
func (c *Codec) DecryptGroups(items []string) ([]wire.LangItem, error) {
	groups := make([]wire.LangItem, 0, len(items))
	for _, item := range items {
		if item == "" {
			return nil, &CryptoError{Op: "decrypt", Err: fmt.Errorf("empty payload entry")}
		}
		raw, err := c.Decrypt(item)
		if err != nil {
			return nil, err
		}
		var group wire.LangItem
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, &CryptoError{Op: "decrypt", Err: fmt.Errorf("decode language group: %w", err)}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// EncryptResults encodes result items into their encrypted wire entries.
func (c *Codec) EncryptResults(items []wire.ResultItem) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, &CryptoError{Op: "encrypt", Err: fmt.Errorf("encode result item: %w", err)}
		}
		encoded, err := c.Encrypt(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

func padPKCS7(data []byte) []byte {
	padding := aes.BlockSize - len(data)%aes.BlockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decryption failed: empty plaintext")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(data) {
		return nil, fmt.Errorf("decryption failed: invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("decryption failed: invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
