package assets

import (
	"encoding/base64"
	"testing"
)

func TestDecodeDataURI(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	data, ct, err := DecodePayload(uri)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if string(data) != string(raw) {
		t.Fatal("payload bytes mangled")
	}
}

func TestDecodeBareBase64(t *testing.T) {
	data, ct, err := DecodePayload(base64.StdEncoding.EncodeToString([]byte("jpeg")))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ct != defaultCT {
		t.Fatalf("content type = %q, want default", ct)
	}
	if string(data) != "jpeg" {
		t.Fatal("payload bytes mangled")
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{"data:image/png;base64", "!!!not-base64!!!"} {
		if _, _, err := DecodePayload(payload); err == nil {
			t.Fatalf("payload %q accepted", payload)
		}
	}
}
