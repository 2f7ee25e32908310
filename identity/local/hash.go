package local

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minPasswordBytes = 8
	phcAlgorithm     = "argon2id"
)

// HashParams configures argon2id password hashing for local accounts.
type HashParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams are tuned for an interactive local provider. Tests may lower Memory.
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      32 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errWeakPassword = errors.New("password must be at least 8 bytes")

func (p HashParams) validate() error {
	if p.Memory < 1024 || p.Time < 1 || p.Parallelism < 1 {
		return errors.New("argon2 cost parameters too low")
	}
	if p.SaltLength < 16 || p.KeyLength < 16 {
		return errors.New("argon2 salt and key length must be at least 16")
	}
	return nil
}

func (p HashParams) hash(password string) (string, error) {
	if len(password) < minPasswordBytes {
		return "", errWeakPassword
	}
	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm, argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(sum),
	), nil
}

// verifyHash checks password against a PHC string produced by hash. The stored
// parameters are used, not the provider's current ones.
func verifyHash(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcAlgorithm {
		return false, errors.New("invalid password hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errors.New("unsupported argon2 version")
	}

	var (
		memory, cost uint32
		par          uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &cost, &par); err != nil {
		return false, fmt.Errorf("invalid argon2 parameters: %w", err)
	}
	if memory == 0 || cost == 0 || par == 0 {
		return false, errors.New("invalid argon2 parameters")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errors.New("invalid salt encoding")
	}
	want, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, errors.New("invalid hash encoding")
	}

	got := argon2.IDKey([]byte(password), salt, cost, memory, par, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
