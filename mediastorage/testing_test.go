package mediastorage

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"github.com/vortechron/go-mediastorage/conversion"
	"github.com/vortechron/go-mediastorage/models"
	"github.com/vortechron/go-mediastorage/storage"
)

// memStorage is an in-memory Storage for tests.
type memStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Save(ctx context.Context, path string, contents io.Reader, options ...storage.Option) error {
	data, err := io.ReadAll(contents)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
	return nil
}

func (s *memStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[path]
	return ok, nil
}

func (s *memStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, path)
	return nil
}

func (s *memStorage) DeleteDir(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p := range s.files {
		if strings.HasPrefix(p, path+"/") {
			delete(s.files, p)
		}
	}
	return nil
}

func (s *memStorage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for p := range s.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *memStorage) Path(path string) string {
	return path
}

func (s *memStorage) URL(path string) string {
	return "/storage/" + path
}

func (s *memStorage) TemporaryURL(ctx context.Context, path string, expiry int64) (string, error) {
	return s.URL(path), nil
}

func (s *memStorage) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// memRepository is an in-memory MediaRepository for tests. Its Create
// mirrors the real implementations: media id and order are allocated
// from current maxima under one lock.
type memRepository struct {
	mu      sync.Mutex
	nextID  uint64
	records []*models.Media
}

func newMemRepository() *memRepository {
	return &memRepository{}
}

func matchesFilter(m *models.Media, filter MediaFilter) bool {
	if filter.Owner != nil {
		if m.OwnerType != filter.Owner.Type || m.OwnerID != filter.Owner.ID {
			return false
		}
	}

	if filter.CollectionID != 0 {
		return m.CollectionID == filter.CollectionID
	}
	if filter.CollectionName != "" {
		return m.CollectionName == filter.CollectionName
	}

	return true
}

func (r *memRepository) Create(ctx context.Context, media *models.Media, orderScope MediaFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxMediaID uint64
	maxOrder := 0
	for _, rec := range r.records {
		if rec.MediaID > maxMediaID {
			maxMediaID = rec.MediaID
		}
		if matchesFilter(rec, orderScope) && rec.Order > maxOrder {
			maxOrder = rec.Order
		}
	}

	r.nextID++
	media.ID = r.nextID
	media.MediaID = maxMediaID + 1
	media.Order = maxOrder + 1

	now := time.Now()
	media.CreatedAt = &now
	media.UpdatedAt = &now

	r.records = append(r.records, media)
	return nil
}

func (r *memRepository) Save(ctx context.Context, media *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	media.UpdatedAt = &now

	for i, rec := range r.records {
		if rec.ID == media.ID {
			r.records[i] = media
			return nil
		}
	}

	r.nextID++
	media.ID = r.nextID
	r.records = append(r.records, media)
	return nil
}

func (r *memRepository) Delete(ctx context.Context, media *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID == media.ID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepository) FindByID(ctx context.Context, id uint64) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *memRepository) FindByMediaID(ctx context.Context, mediaID uint64) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.MediaID == mediaID {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *memRepository) FirstMatching(ctx context.Context, filter MediaFilter) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if matchesFilter(rec, filter) {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *memRepository) FindMatching(ctx context.Context, filter MediaFilter) ([]*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Media
	for _, rec := range r.records {
		if matchesFilter(rec, filter) {
			matched = append(matched, rec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Order < matched[j].Order
	})
	return matched, nil
}

func (r *memRepository) All(ctx context.Context) ([]*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*models.Media, len(r.records))
	copy(all, r.records)
	return all, nil
}

func (r *memRepository) NextMediaID(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxMediaID uint64
	for _, rec := range r.records {
		if rec.MediaID > maxMediaID {
			maxMediaID = rec.MediaID
		}
	}
	return maxMediaID + 1, nil
}

func (r *memRepository) MaxCollectionID(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxCollectionID uint64
	for _, rec := range r.records {
		if rec.CollectionID > maxCollectionID {
			maxCollectionID = rec.CollectionID
		}
	}
	return maxCollectionID, nil
}

// fixedClock pins path planning to one date.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// countingRenderer counts how often the inner renderer actually runs.
type countingRenderer struct {
	inner   conversion.Renderer
	renders int
}

func (r *countingRenderer) Render(ctx context.Context, src []byte, originalExt string, t conversion.Transform) ([]byte, error) {
	r.renders++
	return r.inner.Render(ctx, src, originalExt, t)
}

type testEngine struct {
	*DefaultMediaStorage
	disk     *memStorage
	repo     *memRepository
	renderer *countingRenderer
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	disk := newMemStorage()
	repo := newMemRepository()
	renderer := &countingRenderer{inner: conversion.NewImagingRenderer()}

	diskManager := storage.NewDiskManager()
	diskManager.AddDisk("public", disk)

	engine := NewDefaultMediaStorage(
		diskManager,
		renderer,
		repo,
		WithDefaultDisk("public"),
		WithRootPath("media"),
		WithClock(fixedClock{t: time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)}),
		WithLogLevel(LogLevelNone),
	)

	return &testEngine{
		DefaultMediaStorage: engine,
		disk:                disk,
		repo:                repo,
		renderer:            renderer,
	}
}

func createOne(t *testing.T, engine *testEngine, owner *Owner, collection, name string, content []byte) *models.Media {
	t.Helper()

	created, err := engine.Create(context.Background(), CreateParams{
		Owner:          owner,
		CollectionName: collection,
		Files:          []FileRef{Upload{Name: name, Content: content}},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

// jpegBytes encodes a plain test image of the given dimensions.
func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 120, G: 80, B: 40, A: 255})

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}
