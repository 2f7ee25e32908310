package internal

import (
	"testing"
)

// FuzzDecodeRefreshToken feeds arbitrary strings to the decoder. Invalid input must
// return an error, never panic, and anything accepted must survive a re-encode.
func FuzzDecodeRefreshToken(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

	if sid, err := NewSessionID(); err == nil {
		if secret, err := NewRefreshSecret(); err == nil {
			f.Add(EncodeRefreshToken(sid, secret))
		}
	}

	f.Add("!!!not-base64!!!")
	f.Add("aGVsbG8=")

	f.Fuzz(func(t *testing.T, input string) {
		sid, secret, err := DecodeRefreshToken(input)
		if err != nil {
			return
		}
		sid2, secret2, err := DecodeRefreshToken(EncodeRefreshToken(sid, secret))
		if err != nil {
			t.Fatalf("roundtrip decode failed: %v", err)
		}
		if sid2 != sid || secret2 != secret {
			t.Fatal("roundtrip mismatch")
		}
	})
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	sid, err := NewSessionID()
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	secret, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("secret: %v", err)
	}

	tok := EncodeRefreshToken(sid, secret)
	gotSID, gotSecret, err := DecodeRefreshToken(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotSID != sid || gotSecret.Hash() != secret.Hash() {
		t.Fatal("round trip mismatch")
	}
	if _, _, err := DecodeRefreshToken(tok[:10]); err == nil {
		t.Fatal("expected short token to fail")
	}
}
