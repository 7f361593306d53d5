package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Storage is the byte-level gateway to one named storage area (a "disk").
type Storage interface {
	// Save writes the contents to path, creating parent directories as
	// needed and clobbering any existing file.
	Save(ctx context.Context, path string, contents io.Reader, options ...Option) error

	// Get opens the file at path for reading.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the file at path. Deleting a missing file is not an
	// error.
	Delete(ctx context.Context, path string) error

	// DeleteDir removes a directory (prefix) and everything under it.
	DeleteDir(ctx context.Context, path string) error

	// List returns the paths of all files under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Path resolves a stored path to its locally addressable form: an
	// absolute filesystem path for local disks, the object key for
	// remote ones.
	Path(path string) string

	// URL returns the public URL for path.
	URL(path string) string

	// TemporaryURL returns a URL for path valid for expiry seconds.
	TemporaryURL(ctx context.Context, path string, expiry int64) (string, error)
}

// DiskManager holds the configured disks by name.
type DiskManager struct {
	disks map[string]Storage
	mu    sync.RWMutex
}

func NewDiskManager() *DiskManager {
	return &DiskManager{
		disks: make(map[string]Storage),
	}
}

func (dm *DiskManager) AddDisk(name string, storage Storage) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.disks[name] = storage
}

func (dm *DiskManager) GetDisk(name string) (Storage, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	disk, ok := dm.disks[name]
	if !ok {
		return nil, fmt.Errorf("disk %s not found", name)
	}

	return disk, nil
}

func (dm *DiskManager) HasDisk(name string) bool {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	_, ok := dm.disks[name]
	return ok
}

func (dm *DiskManager) RemoveDisk(name string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	delete(dm.disks, name)
}

// Option configures a single Save call.
type Option func(*Options)

type Options struct {
	ContentType        string
	ContentDisposition string
	Visibility         string
	CacheControl       string
	Metadata           map[string]string
}

func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

func WithContentDisposition(contentDisposition string) Option {
	return func(o *Options) {
		o.ContentDisposition = contentDisposition
	}
}

func WithVisibility(visibility string) Option {
	return func(o *Options) {
		o.Visibility = visibility
	}
}

func WithCacheControl(cacheControl string) Option {
	return func(o *Options) {
		o.CacheControl = cacheControl
	}
}

func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

func NewOptions(opts ...Option) *Options {
	options := &Options{
		Metadata: make(map[string]string),
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
