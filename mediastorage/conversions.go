package mediastorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vortechron/go-mediastorage/conversion"
	"github.com/vortechron/go-mediastorage/models"
	"github.com/vortechron/go-mediastorage/storage"
)

// Derive returns the path of the requested rendering of the record's
// primary file. A zero transform returns the primary path untouched.
// Otherwise the derived name is computed deterministically from the
// transform; if the file already exists on disk this is a cache hit and
// no render happens. On a miss the derivative is rendered, persisted
// next to the primary file and registered on the record for later
// cleanup.
//
// Concurrent first requests for the same transform may both render; the
// last write wins and the registry stays free of duplicates.
func (m *DefaultMediaStorage) Derive(ctx context.Context, media *models.Media, t conversion.Transform) (string, error) {
	if t.IsZero() {
		return media.Path, nil
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		return "", fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	derivedPath := t.DerivedPath(media.Path)

	exists, err := disk.Exists(ctx, derivedPath)
	if err != nil {
		return "", &ConversionError{Path: derivedPath, Err: err}
	}
	if exists {
		m.logger.Debug("Conversion cache hit: %s", derivedPath)
		return derivedPath, nil
	}

	if err := m.renderDerivative(ctx, disk, media, t, derivedPath); err != nil {
		m.logger.Error("Failed to generate conversion %s: %v", derivedPath, err)
		return "", err
	}

	ext := primaryExt(media.Path)
	if media.RegisterConversion(t.Suffix(ext)) {
		if err := m.repository.Save(ctx, media); err != nil {
			return "", &PersistenceError{Op: "save", Err: err}
		}
	}

	m.logger.Debug("Generated conversion %s", derivedPath)

	return derivedPath, nil
}

func (m *DefaultMediaStorage) renderDerivative(ctx context.Context, disk storage.Storage, media *models.Media, t conversion.Transform, derivedPath string) error {
	reader, err := disk.Get(ctx, media.Path)
	if err != nil {
		return &ConversionError{Path: derivedPath, Err: err}
	}
	defer reader.Close()

	src, err := io.ReadAll(reader)
	if err != nil {
		return &ConversionError{Path: derivedPath, Err: err}
	}

	ext := primaryExt(media.Path)
	rendered, err := m.renderer.Render(ctx, src, ext, t)
	if err != nil {
		return &ConversionError{Path: derivedPath, Err: err}
	}

	format := t.Format
	if format == "" {
		format = ext
	}

	err = disk.Save(ctx, derivedPath, bytes.NewReader(rendered),
		storage.WithContentType(conversion.MimeType(format)),
		storage.WithVisibility("public"))
	if err != nil {
		return &ConversionError{Path: derivedPath, Err: err}
	}

	return nil
}

// DeriveExists reports whether the requested rendering already exists on
// disk, without generating it. A zero transform checks the primary file.
func (m *DefaultMediaStorage) DeriveExists(ctx context.Context, media *models.Media, t conversion.Transform) (bool, error) {
	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		return false, fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	path := media.Path
	if !t.IsZero() {
		path = t.DerivedPath(media.Path)
	}

	return disk.Exists(ctx, path)
}

func primaryExt(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
