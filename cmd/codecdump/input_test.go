package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandInputsGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	got, err := expandInputs([]string{filepath.Join(dir, "*.png")})
	if err != nil {
		t.Fatalf("expandInputs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2: %v", len(got), got)
	}
}

func TestExpandInputsPassesThroughS3URI(t *testing.T) {
	got, err := expandInputs([]string{"s3://bucket/key.png"})
	if err != nil {
		t.Fatalf("expandInputs: %v", err)
	}
	if len(got) != 1 || got[0] != "s3://bucket/key.png" {
		t.Fatalf("got %v, want [s3://bucket/key.png]", got)
	}
}

func TestExpandInputsRejectsNoMatch(t *testing.T) {
	if _, err := expandInputs([]string{filepath.Join(t.TempDir(), "nonexistent-*.png")}); err == nil {
		t.Fatal("expected error for a glob matching nothing")
	}
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, err := splitS3URI("s3://my-bucket/path/to/font.ttf")
	if err != nil {
		t.Fatalf("splitS3URI: %v", err)
	}
	if bucket != "my-bucket" || key != "path/to/font.ttf" {
		t.Fatalf("bucket=%q key=%q, want my-bucket / path/to/font.ttf", bucket, key)
	}
}

func TestSplitS3URIRejectsMissingKey(t *testing.T) {
	if _, _, err := splitS3URI("s3://bucket-only"); err == nil {
		t.Fatal("expected error for a URI with no key")
	}
}
