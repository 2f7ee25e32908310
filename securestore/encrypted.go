package securestore

import "context"

// Encrypted seals values before they reach the wrapped Backend.
type Encrypted struct {
	backend Backend
	sealer  *Sealer
}

// NewEncrypted wraps backend with sealer.
func NewEncrypted(backend Backend, sealer *Sealer) *Encrypted {
	return &Encrypted{backend: backend, sealer: sealer}
}

// Get returns the plaintext stored under key, or ErrCorrupt when it cannot be opened.
func (e *Encrypted) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.sealer.Open(key, sealed)
}

// Set seals value and stores it under key.
func (e *Encrypted) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := e.sealer.Seal(key, value)
	if err != nil {
		return err
	}
	return e.backend.Set(ctx, key, sealed)
}

// Delete removes key from the wrapped backend.
func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.backend.Delete(ctx, key)
}
