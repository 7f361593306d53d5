package mediastorage

import (
	"context"
	"fmt"

	"github.com/vortechron/go-mediastorage/models"
)

// Find returns the record with the given primary key, or nil.
func (m *DefaultMediaStorage) Find(ctx context.Context, id uint64) (*models.Media, error) {
	return m.repository.FindByID(ctx, id)
}

// FindByMediaID returns the record with the given logical media id, or
// nil. The media id survives moves between owners, unlike the primary
// key.
func (m *DefaultMediaStorage) FindByMediaID(ctx context.Context, mediaID uint64) (*models.Media, error) {
	return m.repository.FindByMediaID(ctx, mediaID)
}

// Get returns the records matching the filter, ordered ascending by
// their order value.
func (m *DefaultMediaStorage) Get(ctx context.Context, filter MediaFilter) ([]*models.Media, error) {
	return m.repository.FindMatching(ctx, filter)
}

// All returns every record, ignoring scope and ordering.
func (m *DefaultMediaStorage) All(ctx context.Context) ([]*models.Media, error) {
	return m.repository.All(ctx)
}

// Save persists caller-mutated records as-is. Order and collection
// fields are not re-derived; this is the bulk-reorder path.
func (m *DefaultMediaStorage) Save(ctx context.Context, records []*models.Media) error {
	for _, media := range records {
		if err := m.repository.Save(ctx, media); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}
	}

	return nil
}

// Delete removes the records matching the filter, each with its primary
// file and every registered conversion file, and returns how many
// records were processed.
func (m *DefaultMediaStorage) Delete(ctx context.Context, filter MediaFilter) (int, error) {
	records, err := m.repository.FindMatching(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve media to delete: %w", err)
	}

	return m.removeEntries(ctx, records)
}

// DeleteAll removes every record in the store together with its files.
func (m *DefaultMediaStorage) DeleteAll(ctx context.Context) (int, error) {
	records, err := m.repository.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve media to delete: %w", err)
	}

	return m.removeEntries(ctx, records)
}

func (m *DefaultMediaStorage) removeEntries(ctx context.Context, records []*models.Media) (int, error) {
	count := 0
	for _, media := range records {
		if err := m.removeMedia(ctx, media); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// removeMedia is the explicit two-phase delete: files first, then the
// record. Missing files are tolerated so cleanup can race with or repeat
// after a prior partial failure.
func (m *DefaultMediaStorage) removeMedia(ctx context.Context, media *models.Media) error {
	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		return fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	if err := disk.Delete(ctx, media.Path); err != nil {
		m.logger.Warning("Failed to delete primary file %s: %v", media.Path, err)
	}

	for _, path := range media.ConversionPaths() {
		if err := disk.Delete(ctx, path); err != nil {
			m.logger.Warning("Failed to delete conversion file %s: %v", path, err)
		}
	}

	if err := m.repository.Delete(ctx, media); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}

	m.logger.Debug("Deleted media %d and %d conversion files", media.MediaID, len(media.Conversions))

	return nil
}
