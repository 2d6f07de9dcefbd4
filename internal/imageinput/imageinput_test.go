package imageinput

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mindspark-app/mindspark/internal/library"
)

// 1x1 transparent PNG.
var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func TestFromBytesPNG(t *testing.T) {
	part, err := FromBytes(tinyPNG)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if part.InlineData.MIMEType != "image/png" {
		t.Errorf("mime = %q", part.InlineData.MIMEType)
	}
	decoded, _ := base64.StdEncoding.DecodeString(part.InlineData.Data)
	if !bytes.Equal(decoded, tinyPNG) {
		t.Error("payload does not round-trip")
	}
}

func TestFromBytesRejectsText(t *testing.T) {
	_, err := FromBytes([]byte("just some notes about biology"))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("error = %v, want ErrNotImage", err)
	}
	if _, err := FromBytes(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("error = %v, want ErrEmpty", err)
	}
}

func TestReadTooLarge(t *testing.T) {
	_, err := Read(bytes.NewReader(tinyPNG), 10)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
	if _, err := Read(bytes.NewReader(tinyPNG), int64(len(tinyPNG))); err != nil {
		t.Errorf("exact size should pass: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	if err := os.WriteFile(path, tinyPNG, 0o644); err != nil {
		t.Fatal(err)
	}
	part, err := Load(path, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if part.InlineData.MIMEType != "image/png" {
		t.Errorf("mime = %q", part.InlineData.MIMEType)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	good := &library.ImagePart{InlineData: library.InlineData{Data: base64.StdEncoding.EncodeToString(tinyPNG)}}
	if err := Validate(good, 0); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if good.InlineData.MIMEType != "image/png" {
		t.Errorf("missing MIME type should be filled, got %q", good.InlineData.MIMEType)
	}

	text := &library.ImagePart{InlineData: library.InlineData{Data: base64.StdEncoding.EncodeToString([]byte("hello")), MIMEType: "image/png"}}
	if err := Validate(text, 0); !errors.Is(err, ErrNotImage) {
		t.Errorf("error = %v, want ErrNotImage", err)
	}

	if err := Validate(&library.ImagePart{InlineData: library.InlineData{Data: "%%%"}}, 0); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("error = %v, want ErrInvalidEncoding", err)
	}
	if err := Validate(nil, 0); !errors.Is(err, ErrEmpty) {
		t.Errorf("error = %v, want ErrEmpty", err)
	}
}

func TestValidateCorrectsDeclaredType(t *testing.T) {
	part := &library.ImagePart{InlineData: library.InlineData{
		Data:     base64.StdEncoding.EncodeToString(tinyPNG),
		MIMEType: "image/gif",
	}}
	if err := Validate(part, 0); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if part.InlineData.MIMEType != "image/png" {
		t.Errorf("mime = %q, want image/png", part.InlineData.MIMEType)
	}
}

func TestParseDataURL(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG)
	part, err := ParseDataURL(uri, 0)
	if err != nil {
		t.Fatalf("ParseDataURL: %v", err)
	}
	if part.InlineData.MIMEType != "image/png" {
		t.Errorf("mime = %q", part.InlineData.MIMEType)
	}

	gif := "data:image/gif;base64," + base64.StdEncoding.EncodeToString(tinyPNG)
	part, err = ParseDataURL(gif, 0)
	if err != nil || part.InlineData.MIMEType != "image/png" {
		t.Errorf("declared gif: part = %+v, err = %v", part, err)
	}

	for _, bad := range []string{"https://example.com/cat.png", "data:image/png,rawbytes", "data:image/png;base64,!!!"} {
		if _, err := ParseDataURL(bad, 0); err == nil {
			t.Errorf("ParseDataURL(%q) should fail", bad)
		}
	}
}
