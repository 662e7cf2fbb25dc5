package decode

import (
	"testing"
	"time"
)

type samplePayload struct {
	ID        string    `json:"_id"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

func TestMapDecodesJSONTags(t *testing.T) {
	got, err := Map[samplePayload](map[string]any{
		"_id":       "m1",
		"count":     float64(3), // JSON numbers arrive as float64
		"createdAt": "2026-01-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "m1" || got.Count != 3 {
		t.Fatalf("decoded = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("createdAt not parsed from RFC3339 string")
	}
}

func TestMapDropsUnknownFields(t *testing.T) {
	got, err := Map[samplePayload](map[string]any{
		"_id":       "m1",
		"__proto__": "junk",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "m1" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestMapNilRejected(t *testing.T) {
	if _, err := Map[samplePayload](nil); err == nil {
		t.Fatal("nil map accepted")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	got, err := JSON[samplePayload]([]byte(`{"_id":"m2","count":"7"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Weak typing tolerates the string-encoded number.
	if got.Count != 7 {
		t.Fatalf("count = %d", got.Count)
	}
}

func TestJSONMalformed(t *testing.T) {
	if _, err := JSON[samplePayload]([]byte(`{`)); err == nil {
		t.Fatal("malformed JSON accepted")
	}
}
