// Package storage persists arena images.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Comcast/morpha/core"
)

// NotFound is returned by Get when there is no image with the
// requested name.
var NotFound = errors.New("not found")

// Image is a presentation of a Runtime's state as stored in a
// Storage system.
type Image struct {
	// Name is the key for the image.
	Name string `json:"name,omitempty"`

	Snapshot *core.Snapshot `json:"snapshot"`

	// Names optionally maps entry names to Offsets.
	Names map[string]core.Offset `json:"names,omitempty" yaml:",omitempty"`
}

// Storage is a persistence interface for arena images.
type Storage interface {
	Open(ctx context.Context) error

	Close(ctx context.Context) error

	// Put writes the image, replacing any image with the same
	// name.
	Put(ctx context.Context, img *Image) error

	// Get returns NotFound if there is no such image.
	Get(ctx context.Context, name string) (*Image, error)

	Rem(ctx context.Context, name string) error

	// List returns the names of the stored images in order.
	List(ctx context.Context) ([]string, error)
}

// NewImage captures the Runtime's current state.
func NewImage(name string, rt *core.Runtime, names map[string]core.Offset) *Image {
	return &Image{
		Name:     name,
		Snapshot: rt.Snapshot(),
		Names:    names,
	}
}

// Runtime makes a new Runtime from the image.  The arena is at least
// size Words.
func (img *Image) Runtime(size int) (*core.Runtime, error) {
	if img.Snapshot == nil {
		return nil, errors.New("image has no snapshot")
	}
	if size < img.Snapshot.Size {
		size = img.Snapshot.Size
	}
	if size < len(img.Snapshot.Words) {
		size = len(img.Snapshot.Words)
	}
	var rt core.Runtime
	if err := rt.Restore(img.Snapshot, make([]core.Word, size)).Err(); err != nil {
		return nil, err
	}
	return &rt, nil
}

// MemStorage keeps images in memory.
type MemStorage struct {
	sync.RWMutex

	images map[string]*Image
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		images: make(map[string]*Image, 8),
	}
}

func (s *MemStorage) Open(ctx context.Context) error {
	return nil
}

func (s *MemStorage) Close(ctx context.Context) error {
	return nil
}

func (s *MemStorage) Put(ctx context.Context, img *Image) error {
	s.Lock()
	s.images[img.Name] = img
	s.Unlock()
	return nil
}

func (s *MemStorage) Get(ctx context.Context, name string) (*Image, error) {
	s.RLock()
	img, have := s.images[name]
	s.RUnlock()
	if !have {
		return nil, NotFound
	}
	return img, nil
}

func (s *MemStorage) Rem(ctx context.Context, name string) error {
	s.Lock()
	delete(s.images, name)
	s.Unlock()
	return nil
}

func (s *MemStorage) List(ctx context.Context) ([]string, error) {
	s.RLock()
	acc := make([]string, 0, len(s.images))
	for name := range s.images {
		acc = append(acc, name)
	}
	s.RUnlock()
	sort.Strings(acc)
	return acc, nil
}
