package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/linkpolicy"

	"github.com/google/uuid"
)

// PhotoStore is the object storage behind people-mode photos.
type PhotoStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	DeleteObject(ctx context.Context, key string) error
	FileURL(key string) string
}

// PhotoService checks uploaded photo payloads and stores them. Without a
// store the checked payload is kept inline on the option.
type PhotoService struct {
	validator linkpolicy.PhotoValidator
	store     PhotoStore
}

func NewPhotoService(validator linkpolicy.PhotoValidator, store PhotoStore) *PhotoService {
	return &PhotoService{validator: validator, store: store}
}

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Check validates a data URL payload without storing it.
func (s *PhotoService) Check(payload string) (linkpolicy.Photo, error) {
	return s.validator.Decode(payload)
}

// Store saves a checked photo and returns the person fields that reference it.
func (s *PhotoService) Store(ctx context.Context, pollID string, photo linkpolicy.Photo) (poll.PersonDetails, error) {
	if s.store == nil {
		return poll.PersonDetails{
			PhotoMIME: photo.MIME,
			PhotoData: base64.StdEncoding.EncodeToString(photo.Data),
		}, nil
	}

	key := fmt.Sprintf("polls/%s/options/%s.%s", pollID, uuid.NewString(), photoExtensions[photo.MIME])
	if err := s.store.PutObject(ctx, key, photo.MIME, photo.Data); err != nil {
		return poll.PersonDetails{}, err
	}
	return poll.PersonDetails{
		PhotoURL:  s.store.FileURL(key),
		PhotoKey:  key,
		PhotoMIME: photo.MIME,
	}, nil
}

// Remove deletes a stored photo; inline photos need nothing.
func (s *PhotoService) Remove(ctx context.Context, details poll.PersonDetails) error {
	if s.store == nil || strings.TrimSpace(details.PhotoKey) == "" {
		return nil
	}
	return s.store.DeleteObject(ctx, details.PhotoKey)
}
