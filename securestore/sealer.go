package securestore

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	minMemoryKB     uint32 = 8 * 1024
	minTimeCost     uint32 = 1
	minParallelism  uint8  = 1
	minSaltLength          = 16
	minSecretLength        = 16
)

// SealerConfig controls key derivation. Secret is the device secret (for example a value kept
// in the platform keychain); Salt must be stable for the lifetime of stored values.
type SealerConfig struct {
	Secret      []byte
	Salt        []byte
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
}

// DefaultSealerConfig returns Argon2id costs suited to a one-time derivation at startup.
func DefaultSealerConfig(secret, salt []byte) SealerConfig {
	return SealerConfig{
		Secret:      secret,
		Salt:        salt,
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
	}
}

// Sealer encrypts and authenticates values with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from cfg.
func NewSealer(cfg SealerConfig) (*Sealer, error) {
	if err := validateSealerConfig(cfg); err != nil {
		return nil, err
	}

	key := argon2.IDKey(cfg.Secret, cfg.Salt, cfg.Time, cfg.Memory, cfg.Parallelism, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func validateSealerConfig(cfg SealerConfig) error {
	if len(cfg.Secret) < minSecretLength {
		return errors.New("sealer secret must be at least 16 bytes")
	}
	if len(cfg.Salt) < minSaltLength {
		return errors.New("sealer salt must be at least 16 bytes")
	}
	if cfg.Memory < minMemoryKB {
		return errors.New("sealer memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("sealer time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("sealer parallelism must be >= 1")
	}
	return nil
}

// Seal encrypts plaintext for storage under key.
func (s *Sealer) Seal(key string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := s.aead.Seal(nil, nonce, plaintext, []byte(key))
	return encodeEnvelope(nonce, ciphertext), nil
}

// Open decrypts a value sealed under key. Any mismatch yields ErrCorrupt.
func (s *Sealer) Open(key string, sealed []byte) ([]byte, error) {
	nonce, ciphertext, err := decodeEnvelope(sealed)
	if err != nil {
		return nil, err
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plaintext, nil
}
