package linkpolicy

import (
	"encoding/base64"
	"fmt"
	"strings"

	"civic-pulse/internal/domain/poll"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxPhotoBytes is the decoded size ceiling for uploaded photos.
const DefaultMaxPhotoBytes = 2 << 20

var allowedPhotoTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Photo is a decoded, checked photo payload.
type Photo struct {
	MIME string
	Data []byte
}

// PhotoValidator decodes "data:<mime>;base64,<data>" payloads.
type PhotoValidator struct {
	MaxBytes int
}

func NewPhotoValidator(maxBytes int) PhotoValidator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPhotoBytes
	}
	return PhotoValidator{MaxBytes: maxBytes}
}

// Decode validates the declared type, the decoded size and the sniffed type.
func (v PhotoValidator) Decode(payload string) (Photo, error) {
	declared, encoded, err := splitDataURL(payload)
	if err != nil {
		return Photo{}, err
	}
	if _, ok := allowedPhotoTypes[declared]; !ok {
		return Photo{}, fmt.Errorf("type %q: %w", declared, poll.ErrPhotoInvalid)
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > v.MaxBytes+3 {
		return Photo{}, fmt.Errorf("larger than %d bytes: %w", v.MaxBytes, poll.ErrPhotoInvalid)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return Photo{}, fmt.Errorf("bad base64: %w", poll.ErrPhotoInvalid)
		}
	}
	if len(data) == 0 || len(data) > v.MaxBytes {
		return Photo{}, fmt.Errorf("%d bytes: %w", len(data), poll.ErrPhotoInvalid)
	}
	if sniffed := mimetype.Detect(data); !sniffed.Is(declared) {
		return Photo{}, fmt.Errorf("declared %s but content is %s: %w", declared, sniffed.String(), poll.ErrPhotoInvalid)
	}
	return Photo{MIME: declared, Data: data}, nil
}

func splitDataURL(payload string) (string, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(payload), "data:")
	if !ok {
		return "", "", fmt.Errorf("not a data url: %w", poll.ErrPhotoInvalid)
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("missing payload: %w", poll.ErrPhotoInvalid)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", fmt.Errorf("payload must be base64: %w", poll.ErrPhotoInvalid)
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	return mime, encoded, nil
}
