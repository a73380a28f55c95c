// Package crypto seals stored records with a passphrase
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen  = 16
	nonceLen = 12 // GCM standard nonce size
	keyLen   = 32 // AES-256
)

// ErrDecrypt hides whether the passphrase or the data was wrong
var ErrDecrypt = errors.New("decryption failed: invalid passphrase or corrupted data")

// Params are the Argon2id cost parameters
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams follows the OWASP Argon2id recommendation
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 4}

// EncryptedData holds a sealed value with its derivation parameters
type EncryptedData struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	// Cost parameters are stored so records survive a change of defaults
	Time    uint32 `json:"t,omitempty"`
	Memory  uint32 `json:"m,omitempty"`
	Threads uint8  `json:"p,omitempty"`
}

// DeriveKey derives an AES-256 key from a passphrase using Argon2id
func DeriveKey(passphrase string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, keyLen)
}

// Sealer encrypts and decrypts records with one passphrase
type Sealer struct {
	passphrase string
	params     Params
}

// NewSealer creates a Sealer. Zero params select DefaultParams.
func NewSealer(passphrase string, params Params) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if params.Time == 0 {
		params = DefaultParams
	}
	return &Sealer{passphrase: passphrase, params: params}, nil
}

func gcmFor(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext into an EncryptedData envelope
func (s *Sealer) Encrypt(plaintext []byte) (*EncryptedData, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	gcm, err := gcmFor(DeriveKey(s.passphrase, salt, s.params))
	if err != nil {
		return nil, err
	}

	return &EncryptedData{
		Version:    1,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
		Time:       s.params.Time,
		Memory:     s.params.Memory,
		Threads:    s.params.Threads,
	}, nil
}

// Decrypt opens an envelope produced by Encrypt
func (s *Sealer) Decrypt(data *EncryptedData) ([]byte, error) {
	if data == nil {
		return nil, ErrDecrypt
	}
	if data.Version != 1 {
		return nil, fmt.Errorf("unsupported encryption version: %d", data.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(data.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(data.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(data.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	params := s.params
	if data.Time != 0 {
		params = Params{Time: data.Time, Memory: data.Memory, Threads: data.Threads}
	}

	gcm, err := gcmFor(DeriveKey(s.passphrase, salt, params))
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Seal returns the JSON envelope for plaintext
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	env, err := s.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Open reverses Seal
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	var env EncryptedData
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, ErrDecrypt
	}
	return s.Decrypt(&env)
}
