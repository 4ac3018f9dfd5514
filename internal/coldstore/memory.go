package coldstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/plantwatch/plantwatch-go/internal/errors"
)

// MemStore is an in-memory Store used by tests and local development.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject

	// FailPut, when set, makes every Put return this error. Lets tests
	// exercise the archive path where the upload fails before truncation.
	FailPut error
}

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemStore {
	return &MemStore{objects: make(map[string]memObject)}
}

func (s *MemStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.FailPut != nil {
		return s.FailPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: data, contentType: contentType, modified: time.Now().UTC()}
	return nil
}

func (s *MemStore) List(ctx context.Context, prefix string) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var infos []Info
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, Info{
			Key:          key,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.modified,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *MemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, errors.Newf("object %s not found", key).
			Component("coldstore").
			Category(errors.CategoryColdStore).
			Build()
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Bytes returns a stored object's contents, or nil when absent.
func (s *MemStore) Bytes(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil
	}
	return append([]byte(nil), obj.data...)
}

// Len reports the number of stored objects.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
