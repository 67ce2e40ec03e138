// Package security holds the at-rest encryption used for message bodies.
package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const (
	keySize = 32
	ivSize  = aes.BlockSize

	// DecryptFailedPlaceholder replaces content that cannot be decrypted.
	DecryptFailedPlaceholder = "[Message could not be decrypted]"
)

var (
	ivPattern     = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

	errMalformedToken = errors.New("malformed ciphertext token")
	errBadPadding     = errors.New("invalid padding")
)

// FailureObserver is notified whenever a token fails to decrypt.
type FailureObserver func()

// Encryptor encrypts free text with AES-256-CBC. Tokens have the form
// hex(iv) ":" base64(ciphertext).
type Encryptor struct {
	block     cipher.Block
	logger    *slog.Logger
	onFailure FailureObserver
}

// NewEncryptor derives the key by padding the secret with '0' or
// truncating it to 32 bytes.
func NewEncryptor(secret string, logger *slog.Logger) (*Encryptor, error) {
	block, err := aes.NewCipher(DeriveKey(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Encryptor{block: block, logger: logger}, nil
}

// OnFailure registers an observer for decrypt failures.
func (e *Encryptor) OnFailure(fn FailureObserver) {
	e.onFailure = fn
}

// DeriveKey pads or truncates secret to exactly 32 bytes.
func DeriveKey(secret string) []byte {
	key := []byte(secret)
	if len(key) >= keySize {
		return key[:keySize]
	}
	return append(key, bytes.Repeat([]byte("0"), keySize-len(key))...)
}

// Encrypt returns a token for plaintext using a fresh random IV.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(e.block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt never fails outward: malformed or undecryptable tokens are
// logged and yield DecryptFailedPlaceholder.
func (e *Encryptor) Decrypt(token string) string {
	plaintext, err := e.decrypt(token)
	if err != nil {
		e.logger.Warn("Failed to decrypt message content", "error", err)
		if e.onFailure != nil {
			e.onFailure()
		}
		return DecryptFailedPlaceholder
	}
	return plaintext
}

func (e *Encryptor) decrypt(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected 2 parts, got %d", errMalformedToken, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: iv is not hex", errMalformedToken)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", errMalformedToken, ivSize, len(iv))
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64", errMalformedToken)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", errMalformedToken, len(ciphertext))
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(e.block, iv).CryptBlocks(out, ciphertext)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// IsEncrypted checks token shape only. Plaintext that happens to look
// like a token is reported as encrypted.
func IsEncrypted(token string) bool {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return false
	}
	return ivPattern.MatchString(parts[0]) && base64Pattern.MatchString(parts[1])
}

// IsEncrypted is the method form of the package function.
func (e *Encryptor) IsEncrypted(token string) bool {
	return IsEncrypted(token)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadPadding
		}
	}
	return data[:len(data)-n], nil
}
