package record

import (
	"bytes"
	"testing"
)

// FuzzParse checks that arbitrary input never panics and that accepted input round-trips.
func FuzzParse(f *testing.F) {
	f.Add([]byte(`{"access_token":"a","expires_at":1893456000,"user":{"email":"x@y"}}`))
	f.Add([]byte(`{"expires_at":1.5}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"user":"not-an-object"}`))
	f.Add([]byte{})
	f.Add([]byte{0xff, 0xfe})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Parse(data)
		if err != nil {
			return
		}
		if !bytes.Equal(s.Bytes(), data) {
			t.Fatalf("round trip changed payload")
		}
	})
}
