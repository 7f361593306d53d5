package mediastorage

import (
	"context"
	"fmt"

	"github.com/vortechron/go-mediastorage/conversion"
	"github.com/vortechron/go-mediastorage/models"
)

// MediaURL returns the public URL of the record's primary file.
func (m *DefaultMediaStorage) MediaURL(media *models.Media) string {
	if media == nil {
		m.logger.Debug("MediaURL called with nil media")
		return ""
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		m.logger.Error("Error getting disk %s: %v", media.Disk, err)
		return ""
	}

	url := disk.URL(media.Path)
	m.logger.Debug("Generated URL for media %d: %s", media.MediaID, url)
	return url
}

// DeriveURL resolves a transform to the public URL of its derivative,
// generating it first when it is not cached yet.
func (m *DefaultMediaStorage) DeriveURL(ctx context.Context, media *models.Media, t conversion.Transform) (string, error) {
	if media == nil {
		return "", &NotFoundError{}
	}

	path, err := m.Derive(ctx, media, t)
	if err != nil {
		return "", err
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		return "", fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	return disk.URL(path), nil
}

// TemporaryMediaURL returns a URL for the primary file valid for expiry
// seconds. Disks without expiring URLs return their plain URL.
func (m *DefaultMediaStorage) TemporaryMediaURL(ctx context.Context, media *models.Media, expiry int64) (string, error) {
	if media == nil {
		return "", &NotFoundError{}
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		return "", fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	return disk.TemporaryURL(ctx, media.Path, expiry)
}
