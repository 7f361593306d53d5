package mediastorage

import (
	"context"
	"time"

	"github.com/vortechron/go-mediastorage/conversion"
	"github.com/vortechron/go-mediastorage/models"
	"github.com/vortechron/go-mediastorage/storage"
)

// MediaStorage is the media lifecycle engine: it attaches uploaded files
// to owning records, keeps them in ordered named collections, derives
// cached image conversions on demand and cascades cleanup on delete.
type MediaStorage interface {
	Create(ctx context.Context, params CreateParams) ([]*models.Media, error)

	Find(ctx context.Context, id uint64) (*models.Media, error)

	FindByMediaID(ctx context.Context, mediaID uint64) (*models.Media, error)

	Get(ctx context.Context, filter MediaFilter) ([]*models.Media, error)

	All(ctx context.Context) ([]*models.Media, error)

	Save(ctx context.Context, records []*models.Media) error

	Delete(ctx context.Context, filter MediaFilter) (int, error)

	DeleteAll(ctx context.Context) (int, error)

	Derive(ctx context.Context, media *models.Media, t conversion.Transform) (string, error)

	DeriveExists(ctx context.Context, media *models.Media, t conversion.Transform) (bool, error)

	DeriveURL(ctx context.Context, media *models.Media, t conversion.Transform) (string, error)

	MediaURL(media *models.Media) string

	TemporaryMediaURL(ctx context.Context, media *models.Media, expiry int64) (string, error)

	GetMediaRepository() MediaRepository
}

// MediaRepository is the persistence layer over media metadata records.
type MediaRepository interface {
	// Create inserts a new record, assigning MediaID as the global
	// max(media_id)+1 and Order as max(order)+1 within orderScope. Both
	// reads and the insert must run in one transaction so concurrent
	// creators can never allocate duplicate values.
	Create(ctx context.Context, media *models.Media, orderScope MediaFilter) error

	Save(ctx context.Context, media *models.Media) error

	Delete(ctx context.Context, media *models.Media) error

	FindByID(ctx context.Context, id uint64) (*models.Media, error)

	FindByMediaID(ctx context.Context, mediaID uint64) (*models.Media, error)

	// FirstMatching returns the first record in the filter's scope, or
	// nil when the scope is empty.
	FirstMatching(ctx context.Context, filter MediaFilter) (*models.Media, error)

	// FindMatching returns the filter's records ordered ascending by
	// their order value.
	FindMatching(ctx context.Context, filter MediaFilter) ([]*models.Media, error)

	All(ctx context.Context) ([]*models.Media, error)

	// NextMediaID previews the next global media id. Advisory outside a
	// transaction; Create recomputes it when inserting.
	NextMediaID(ctx context.Context) (uint64, error)

	MaxCollectionID(ctx context.Context) (uint64, error)
}

// Owner identifies the external entity a record is attached to. The
// engine never inspects the owner beyond this pair; Type doubles as the
// path segment for owned media.
type Owner struct {
	Type string
	ID   uint64
}

// MediaFilter scopes queries and deletes. A nil Owner matches any owner;
// collection id takes precedence over collection name when both are set.
type MediaFilter struct {
	Owner          *Owner
	CollectionID   uint64
	CollectionName string
}

// Clock supplies the current time for date-based path segmentation. It
// is injectable because generated paths vary run to run with the wall
// clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// DefaultMediaStorage is the standard MediaStorage implementation.
type DefaultMediaStorage struct {
	diskManager    *storage.DiskManager
	renderer       conversion.Renderer
	repository     MediaRepository
	planner        PathPlanner
	logger         Logger
	defaultOptions *Options
}

func NewDefaultMediaStorage(
	diskManager *storage.DiskManager,
	renderer conversion.Renderer,
	repository MediaRepository,
	options ...Option,
) *DefaultMediaStorage {
	opts := &Options{
		DefaultDisk: "public",
		RootPath:    "media",
		Clock:       systemClock{},
		LogLevel:    LogLevelError,
	}

	for _, opt := range options {
		opt(opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewDefaultLogger(opts.LogLevel)
	}

	planner := opts.PathPlanner
	if planner == nil {
		planner = NewDefaultPathPlanner(opts.RootPath, opts.Clock)
	}

	return &DefaultMediaStorage{
		diskManager:    diskManager,
		renderer:       renderer,
		repository:     repository,
		planner:        planner,
		logger:         logger,
		defaultOptions: opts,
	}
}

func (m *DefaultMediaStorage) GetMediaRepository() MediaRepository {
	return m.repository
}

// GetLogger returns the engine's logger.
func (m *DefaultMediaStorage) GetLogger() Logger {
	return m.logger
}

// SetLogLevel adjusts the engine's log level.
func (m *DefaultMediaStorage) SetLogLevel(level LogLevel) {
	m.logger.SetLevel(level)
}

var _ MediaStorage = (*DefaultMediaStorage)(nil)
