// Package imageinput turns uploaded or local image files into inline
// image parts for the model.
package imageinput

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mindspark-app/mindspark/internal/library"
)

// DefaultMaxBytes caps images when the caller passes no limit.
const DefaultMaxBytes = 20 << 20

var (
	ErrNotImage        = errors.New("file is not an image")
	ErrTooLarge        = errors.New("image is too large")
	ErrEmpty           = errors.New("image is empty")
	ErrInvalidEncoding = errors.New("image data is not valid base64")
)

// Read consumes r and returns it as an image part. The MIME type is
// sniffed from the content; anything that is not image/* is rejected.
func Read(r io.Reader, maxBytes int64) (*library.ImagePart, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	return FromBytes(data)
}

// Load reads the image file at path.
func Load(path string, maxBytes int64) (*library.ImagePart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	part, err := Read(f, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return part, nil
}

// FromBytes encodes data as an image part.
func FromBytes(data []byte) (*library.ImagePart, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return &library.ImagePart{InlineData: library.InlineData{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: baseType(mt.String()),
	}}, nil
}

// Validate checks an image part received already encoded, such as from a
// JSON request. The MIME type is replaced by the one sniffed from the
// content, so a wrong or missing declaration is corrected.
func Validate(part *library.ImagePart, maxBytes int64) error {
	if part == nil || part.InlineData.Data == "" {
		return ErrEmpty
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(base64.StdEncoding.DecodedLen(len(part.InlineData.Data))) > maxBytes+2 {
		return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	if int64(len(data)) > maxBytes {
		return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	detected, err := FromBytes(data)
	if err != nil {
		return err
	}
	part.InlineData.MIMEType = detected.InlineData.MIMEType
	return nil
}

// ParseDataURL decodes a "data:image/png;base64,..." URI.
func ParseDataURL(uri string, maxBytes int64) (*library.ImagePart, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URL", ErrNotImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL must be base64", ErrNotImage)
	}
	part := &library.ImagePart{InlineData: library.InlineData{
		Data:     payload,
		MIMEType: strings.TrimSuffix(meta, ";base64"),
	}}
	if err := Validate(part, maxBytes); err != nil {
		return nil, err
	}
	return part, nil
}

func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return mime[:i]
	}
	return mime
}
