package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrCrypto is returned when a stored credential blob cannot be decrypted,
// either because it was corrupted or because it was produced under a
// different key. Callers must treat it as non-retriable.
var ErrCrypto = errors.New("vault: unable to decrypt credentials")

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Vault seals account credentials with AES-GCM. The key is process-wide
// configuration loaded once at startup and is never stored next to the
// ciphertext.
type Vault struct {
	key []byte
}

func New(key []byte) (*Vault, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("vault: key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	return &Vault{key: key}, nil
}

func (v *Vault) EncryptCredentials(creds Credentials) (string, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	// Nonce is prepended so the blob is self-contained.
	finalData := append(nonce, ciphertext...)

	return base64.StdEncoding.EncodeToString(finalData), nil
}

func (v *Vault) DecryptCredentials(encryptedData string) (Credentials, error) {
	var creds Credentials

	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return creds, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return creds, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return creds, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return creds, fmt.Errorf("%w: ciphertext too short", ErrCrypto)
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return creds, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return creds, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return creds, nil
}
