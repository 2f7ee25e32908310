package securestore

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersionCurrent = 1
	envelopeHeaderSize     = 1 + chacha20poly1305.NonceSizeX
)

func encodeEnvelope(nonce, ciphertext []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(envelopeHeaderSize + len(ciphertext))

	buf.WriteByte(envelopeVersionCurrent)
	buf.Write(nonce)
	buf.Write(ciphertext)

	return buf.Bytes()
}

func decodeEnvelope(data []byte) (nonce, ciphertext []byte, err error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty envelope", ErrCorrupt)
	}
	if data[0] != envelopeVersionCurrent {
		return nil, nil, fmt.Errorf("%w: unsupported envelope version %d", ErrCorrupt, data[0])
	}
	if len(data) < envelopeHeaderSize+chacha20poly1305.Overhead {
		return nil, nil, fmt.Errorf("%w: envelope truncated", ErrCorrupt)
	}
	return data[1:envelopeHeaderSize], data[envelopeHeaderSize:], nil
}
