package mediastorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortechron/go-mediastorage/conversion"
	"github.com/vortechron/go-mediastorage/storage"
)

func TestCreateEmptyBatch(t *testing.T) {
	engine := newTestEngine(t)

	created, err := engine.Create(context.Background(), CreateParams{})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestCreateAssignsSequentialOrder(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	owner := &Owner{Type: "posts", ID: 1}

	for i := 0; i < 4; i++ {
		createOne(t, engine, owner, "gallery", fmt.Sprintf("photo-%d.jpg", i), jpegBytes(t, 40, 40))
	}

	records, err := engine.Get(ctx, MediaFilter{Owner: owner, CollectionName: "gallery"})
	require.NoError(t, err)
	require.Len(t, records, 4)

	for i, media := range records {
		assert.Equal(t, i+1, media.Order)
	}
}

func TestCreateAllocatesGlobalMediaIDs(t *testing.T) {
	engine := newTestEngine(t)

	a := createOne(t, engine, &Owner{Type: "posts", ID: 1}, "gallery", "a.jpg", jpegBytes(t, 40, 40))
	b := createOne(t, engine, &Owner{Type: "pages", ID: 7}, "banners", "b.jpg", jpegBytes(t, 40, 40))
	c := createOne(t, engine, nil, "", "c.jpg", jpegBytes(t, 40, 40))

	assert.Equal(t, uint64(1), a.MediaID)
	assert.Equal(t, uint64(2), b.MediaID)
	assert.Equal(t, uint64(3), c.MediaID)
}

func TestCreateReusesCollectionID(t *testing.T) {
	engine := newTestEngine(t)
	owner := &Owner{Type: "posts", ID: 1}

	first := createOne(t, engine, owner, "gallery", "a.jpg", jpegBytes(t, 40, 40))
	second := createOne(t, engine, owner, "gallery", "b.jpg", jpegBytes(t, 40, 40))
	other := createOne(t, engine, owner, "covers", "c.jpg", jpegBytes(t, 40, 40))

	require.NotZero(t, first.CollectionID)
	assert.Equal(t, first.CollectionID, second.CollectionID)
	assert.NotEqual(t, first.CollectionID, other.CollectionID)
}

func TestCreateRecoversCollectionNameFromID(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	owner := &Owner{Type: "posts", ID: 1}

	first := createOne(t, engine, owner, "gallery", "a.jpg", jpegBytes(t, 40, 40))

	created, err := engine.Create(ctx, CreateParams{
		Owner:        owner,
		CollectionID: first.CollectionID,
		Files:        []FileRef{Upload{Name: "b.jpg", Content: jpegBytes(t, 40, 40)}},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	assert.Equal(t, "gallery", created[0].CollectionName)
	assert.Equal(t, first.CollectionID, created[0].CollectionID)
	assert.Equal(t, 2, created[0].Order)
}

func TestCreateOwnerWithoutCollection(t *testing.T) {
	engine := newTestEngine(t)
	owner := &Owner{Type: "posts", ID: 1}

	first := createOne(t, engine, owner, "", "a.jpg", jpegBytes(t, 40, 40))
	second := createOne(t, engine, owner, "", "b.jpg", jpegBytes(t, 40, 40))

	assert.Zero(t, first.CollectionID)
	assert.Zero(t, second.CollectionID)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)
}

func TestCreateResolvesNameCollisions(t *testing.T) {
	engine := newTestEngine(t)

	first := createOne(t, engine, nil, "", "avatar.jpg", jpegBytes(t, 40, 40))
	second := createOne(t, engine, nil, "", "avatar.jpg", jpegBytes(t, 40, 40))

	assert.Equal(t, "media/2023/05/avatar.jpg", first.Path)
	assert.Equal(t, "media/2023/05/avatar-2.jpg", second.Path)
}

func TestCreateBatchReservesPlannedNames(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.Create(ctx, CreateParams{
		Files: []FileRef{
			Upload{Name: "avatar.jpg", Content: jpegBytes(t, 40, 40)},
			Upload{Name: "avatar.jpg", Content: jpegBytes(t, 40, 40)},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, "media/2023/05/avatar.jpg", created[0].Path)
	assert.Equal(t, "media/2023/05/avatar-2.jpg", created[1].Path)
}

func TestCreateSetsRecordFields(t *testing.T) {
	engine := newTestEngine(t)
	owner := &Owner{Type: "posts", ID: 9}

	media := createOne(t, engine, owner, "gallery", "photo.jpg", jpegBytes(t, 40, 40))

	assert.Equal(t, "posts", media.OwnerType)
	assert.Equal(t, uint64(9), media.OwnerID)
	assert.Equal(t, "public", media.Disk)
	assert.Equal(t, "photo.jpg", media.FileName)
	assert.Equal(t, "image/jpeg", media.MimeType)
	assert.NotZero(t, media.Size)
	assert.NotNil(t, media.UUID)
	assert.NotNil(t, media.CreatedAt)
}

func TestCreateStoresProps(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.Create(ctx, CreateParams{
		Files: []FileRef{Upload{Name: "photo.jpg", Content: jpegBytes(t, 40, 40)}},
		Props: map[string]interface{}{
			"alt":    "A photo",
			"credit": map[string]interface{}{"name": "Ann"},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	assert.Equal(t, "A photo", created[0].Prop("alt").String())
	assert.Equal(t, "Ann", created[0].Prop("credit.name").String())
}

func TestCreateFromStoredPath(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.disk.Save(ctx, "uploads/tmp/photo.jpg", bytes.NewReader(jpegBytes(t, 40, 40))))

	created, err := engine.Create(ctx, CreateParams{
		Files: []FileRef{StoredPath("uploads/tmp/photo.jpg")},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	assert.Equal(t, "photo.jpg", created[0].FileName)
	assert.Equal(t, "image/jpeg", created[0].MimeType)

	gone, err := engine.disk.Exists(ctx, "uploads/tmp/photo.jpg")
	require.NoError(t, err)
	assert.False(t, gone, "stored source should be removed after the copy")
}

func TestCreateFromStoredPathPreservesOriginal(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.disk.Save(ctx, "uploads/tmp/photo.jpg", bytes.NewReader(jpegBytes(t, 40, 40))))

	_, err := engine.Create(ctx, CreateParams{
		Files:            []FileRef{StoredPath("uploads/tmp/photo.jpg")},
		PreserveOriginal: true,
	})
	require.NoError(t, err)

	kept, err := engine.disk.Exists(ctx, "uploads/tmp/photo.jpg")
	require.NoError(t, err)
	assert.True(t, kept)
}

func TestCreateMissingStoredPathFails(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Create(context.Background(), CreateParams{
		Files: []FileRef{StoredPath("uploads/tmp/missing.jpg")},
	})
	require.Error(t, err)

	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, "uploads/tmp/missing.jpg", notFound.Path)
}

func TestCreateRejectsEmptyUpload(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Create(context.Background(), CreateParams{
		Files: []FileRef{Upload{Name: "photo.jpg"}},
	})
	require.Error(t, err)

	var intake *IntakeError
	assert.True(t, errors.As(err, &intake))
}

func TestCreateUnknownDiskFails(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Create(context.Background(), CreateParams{
		Files: []FileRef{Upload{Name: "photo.jpg", Content: jpegBytes(t, 40, 40)}},
		Disk:  "nope",
	})
	require.Error(t, err)
}

// Media ids and order values are allocated together with the insert, so
// concurrent creators into one scope must end up with exactly the sets
// 1..N, no duplicates and no gaps.
func TestCreateConcurrentAllocationsAreUnique(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	owner := &Owner{Type: "posts", ID: 1}

	const n = 16
	contents := make([][]byte, n)
	for i := range contents {
		contents[i] = jpegBytes(t, 20, 20)
	}

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.Create(ctx, CreateParams{
				Owner:          owner,
				CollectionName: "gallery",
				Files:          []FileRef{Upload{Name: fmt.Sprintf("photo-%d.jpg", i), Content: contents[i]}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	records, err := engine.Get(ctx, MediaFilter{Owner: owner, CollectionName: "gallery"})
	require.NoError(t, err)
	require.Len(t, records, n)

	orders := make(map[int]bool, n)
	mediaIDs := make(map[uint64]bool, n)
	for _, media := range records {
		orders[media.Order] = true
		mediaIDs[media.MediaID] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, orders[i], "missing order %d", i)
		assert.True(t, mediaIDs[uint64(i)], "missing media id %d", i)
	}
}

// failingStorage fails writes to one specific path.
type failingStorage struct {
	*memStorage
	failOn string
}

func (s *failingStorage) Save(ctx context.Context, path string, contents io.Reader, options ...storage.Option) error {
	if path == s.failOn {
		return fmt.Errorf("disk full")
	}
	return s.memStorage.Save(ctx, path, contents, options...)
}

func TestCreatePartialBatchKeepsEarlierFiles(t *testing.T) {
	ctx := context.Background()

	disk := &failingStorage{memStorage: newMemStorage(), failOn: "media/2023/05/b.jpg"}
	repo := newMemRepository()

	diskManager := storage.NewDiskManager()
	diskManager.AddDisk("public", disk)

	engine := NewDefaultMediaStorage(
		diskManager,
		conversion.NewImagingRenderer(),
		repo,
		WithClock(fixedClock{t: time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)}),
		WithLogLevel(LogLevelNone),
	)

	created, err := engine.Create(ctx, CreateParams{
		Files: []FileRef{
			Upload{Name: "a.jpg", Content: jpegBytes(t, 40, 40)},
			Upload{Name: "b.jpg", Content: jpegBytes(t, 40, 40)},
			Upload{Name: "c.jpg", Content: jpegBytes(t, 40, 40)},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.jpg")

	require.Len(t, created, 1)
	assert.Equal(t, "media/2023/05/a.jpg", created[0].Path)

	records, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	exists, err := disk.Exists(ctx, "media/2023/05/a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}
