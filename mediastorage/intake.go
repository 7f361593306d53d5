package mediastorage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vortechron/go-mediastorage/storage"
)

// OriginKind tells where a resolved file came from.
type OriginKind string

const (
	OriginUpload OriginKind = "upload"
	OriginStored OriginKind = "stored"
)

// FileRef is a caller-supplied reference to a file: either an in-memory
// upload or a path already stored on the source disk.
type FileRef interface {
	fileRef()
}

// Upload is a staged in-memory upload.
type Upload struct {
	Name    string
	Content []byte
}

func (Upload) fileRef() {}

// StoredPath references a file already present on the source disk.
type StoredPath string

func (StoredPath) fileRef() {}

// FileSource is a normalized source descriptor: content, original name,
// probed MIME type and size, plus where it came from.
type FileSource struct {
	Content      []byte
	OriginalName string
	MimeType     string
	Size         int64
	Origin       OriginKind

	// sourcePath is set for stored origins so the original can be
	// removed after the copy lands.
	sourcePath string
}

// resolveSources resolves a batch of file references against the source
// disk. Any failure aborts the whole batch; nothing is written at this
// stage.
func (m *DefaultMediaStorage) resolveSources(ctx context.Context, disk storage.Storage, diskName string, refs []FileRef) ([]*FileSource, error) {
	sources := make([]*FileSource, 0, len(refs))

	for _, ref := range refs {
		source, err := m.resolveSource(ctx, disk, diskName, ref)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	return sources, nil
}

func (m *DefaultMediaStorage) resolveSource(ctx context.Context, disk storage.Storage, diskName string, ref FileRef) (*FileSource, error) {
	switch f := ref.(type) {
	case Upload:
		if f.Name == "" {
			return nil, &IntakeError{Name: f.Name, Err: fmt.Errorf("upload has no file name")}
		}
		if len(f.Content) == 0 {
			return nil, &IntakeError{Name: f.Name, Err: fmt.Errorf("upload is empty")}
		}

		return &FileSource{
			Content:      f.Content,
			OriginalName: f.Name,
			MimeType:     mimetype.Detect(f.Content).String(),
			Size:         int64(len(f.Content)),
			Origin:       OriginUpload,
		}, nil

	case StoredPath:
		path := string(f)

		exists, err := disk.Exists(ctx, path)
		if err != nil {
			return nil, &IntakeError{Name: path, Err: err}
		}
		if !exists {
			return nil, &NotFoundError{Disk: diskName, Path: path}
		}

		reader, err := disk.Get(ctx, path)
		if err != nil {
			return nil, &IntakeError{Name: path, Err: err}
		}
		defer reader.Close()

		content, err := io.ReadAll(reader)
		if err != nil {
			return nil, &IntakeError{Name: path, Err: err}
		}

		return &FileSource{
			Content:      content,
			OriginalName: filepath.Base(path),
			MimeType:     mimetype.Detect(content).String(),
			Size:         int64(len(content)),
			Origin:       OriginStored,
			sourcePath:   path,
		}, nil

	default:
		return nil, &IntakeError{Err: fmt.Errorf("unsupported file reference %T", ref)}
	}
}
