package cache

import (
	"errors"
	"testing"

	codec "github.com/fenwick-engine/codec"
)

func TestDecodeCachesRepeatedContent(t *testing.T) {
	calls := 0
	decode := func(data []byte) (*codec.Texture, string, error) {
		calls++
		return codec.NewTexture(1, 1), "test", nil
	}
	d := New(16, decode)

	data := []byte("same bytes every time")
	if _, _, err := d.Decode(data); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, _, err := d.Decode(append([]byte{}, data...)); err != nil {
		t.Fatalf("Decode (copy): %v", err)
	}
	if calls != 1 {
		t.Fatalf("decode called %d times, want 1 for identical content", calls)
	}
}

func TestDecodeDistinctContentMisses(t *testing.T) {
	calls := 0
	decode := func(data []byte) (*codec.Texture, string, error) {
		calls++
		return codec.NewTexture(1, 1), "test", nil
	}
	d := New(16, decode)

	if _, _, err := d.Decode([]byte("a")); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, _, err := d.Decode([]byte("b")); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if calls != 2 {
		t.Fatalf("decode called %d times, want 2 for distinct content", calls)
	}
}

func TestDecodeCachesFailure(t *testing.T) {
	wantErr := errors.New("boom")
	calls := 0
	decode := func(data []byte) (*codec.Texture, string, error) {
		calls++
		return nil, "", wantErr
	}
	d := New(16, decode)

	if _, _, err := d.Decode([]byte("bad")); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if _, _, err := d.Decode([]byte("bad")); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Fatalf("decode called %d times, want 1 (cached failure)", calls)
	}
}
