// Package upload stores registrant photos and returns the URL recorded on the
// registrant.
package upload

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"examboard/internal/registration/models"
)

// InMemory keeps uploaded photos in a map under generated object keys.
type InMemory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]models.Photo
}

func NewInMemory(baseURL string) *InMemory {
	if baseURL == "" {
		baseURL = "memory://photos"
	}
	return &InMemory{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]models.Photo),
	}
}

func (s *InMemory) Upload(ctx context.Context, photo models.Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(photo.Data) == 0 {
		return "", errors.New("photo is empty")
	}
	key := objectKey(photo)
	photo.Data = slices.Clone(photo.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = photo
	return s.baseURL + "/" + key, nil
}

// Get returns a stored photo by object key.
func (s *InMemory) Get(key string) (models.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.objects[key]
	return p, ok
}

// Keys lists stored object keys in sorted order.
func (s *InMemory) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.objects))
}

// objectKey names an object by a random id and the extension of its type.
func objectKey(p models.Photo) string {
	ext := ".bin"
	switch p.ContentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	}
	return uuid.NewString() + ext
}
