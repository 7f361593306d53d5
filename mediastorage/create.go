package mediastorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/vortechron/go-mediastorage/models"
	"github.com/vortechron/go-mediastorage/storage"
)

// CreateParams describes one create batch. Build it fully, then pass it
// to Create; nothing on the engine is mutated between calls.
type CreateParams struct {
	Owner          *Owner
	CollectionID   uint64
	CollectionName string

	Files []FileRef

	// Props is the free-form property document shared by every record
	// in the batch.
	Props map[string]interface{}

	// Disk overrides the engine's default storage area.
	Disk string

	// TransliterationLocale rewrites original file names with that
	// locale's substitution table before planning.
	TransliterationLocale string

	// PreserveOriginal keeps stored-path sources in place instead of
	// removing them after the copy.
	PreserveOriginal bool

	// AllowOverwrite skips collision probing and lets writes clobber.
	AllowOverwrite bool
}

// Create resolves, stores and persists a batch of files as media
// records.
//
// The batch is best-effort: planner, sequencer and intake failures abort
// before anything is written, but a write or persist failure mid-batch
// leaves earlier files committed. The returned error names the offending
// file and the records created so far are returned with it.
func (m *DefaultMediaStorage) Create(ctx context.Context, params CreateParams) ([]*models.Media, error) {
	if len(params.Files) == 0 {
		return []*models.Media{}, nil
	}

	diskName := params.Disk
	if diskName == "" {
		diskName = m.defaultOptions.DefaultDisk
	}

	disk, err := m.diskManager.GetDisk(diskName)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk %s: %w", diskName, err)
	}

	m.logger.Debug("Creating %d media entries on disk %s", len(params.Files), diskName)

	sources, err := m.resolveSources(ctx, disk, diskName, params.Files)
	if err != nil {
		m.logger.Error("Failed to resolve file references: %v", err)
		return nil, err
	}

	plan, err := m.resolveCollection(ctx, params.Owner, params.CollectionID, params.CollectionName)
	if err != nil {
		m.logger.Error("Failed to resolve collection: %v", err)
		return nil, err
	}

	props, err := marshalProps(params.Props)
	if err != nil {
		return nil, err
	}

	ownerTable := ""
	if params.Owner != nil {
		ownerTable = params.Owner.Type
	}

	// Plan all targets up front; names planned earlier in the batch are
	// reserved so duplicate originals cannot land on the same path.
	reserved := make(map[string]struct{}, len(sources))
	planned := make([]PlannedPath, 0, len(sources))
	for _, source := range sources {
		target, err := m.planner.Plan(ctx, disk, PlanRequest{
			OwnerTable:            ownerTable,
			CollectionName:        plan.name,
			OriginalName:          source.OriginalName,
			TransliterationLocale: params.TransliterationLocale,
			AllowOverwrite:        params.AllowOverwrite,
			Reserved:              reserved,
		})
		if err != nil {
			m.logger.Error("Failed to plan target path for %s: %v", source.OriginalName, err)
			return nil, err
		}
		reserved[target.FullPath()] = struct{}{}
		planned = append(planned, target)
	}

	created := make([]*models.Media, 0, len(sources))
	for i, source := range sources {
		media, err := m.storeOne(ctx, disk, diskName, source, planned[i], plan, props, params.PreserveOriginal)
		if err != nil {
			m.logger.Error("Failed to create media entry for %s: %v", source.OriginalName, err)
			return created, fmt.Errorf("failed to create media entry for %s: %w", source.OriginalName, err)
		}
		created = append(created, media)
	}

	m.logger.Debug("Created %d media entries", len(created))

	return created, nil
}

func (m *DefaultMediaStorage) storeOne(
	ctx context.Context,
	disk storage.Storage,
	diskName string,
	source *FileSource,
	target PlannedPath,
	plan collectionPlan,
	props []byte,
	preserveOriginal bool,
) (*models.Media, error) {
	err := disk.Save(ctx, target.FullPath(), bytes.NewReader(source.Content),
		storage.WithContentType(source.MimeType),
		storage.WithVisibility("public"))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if source.Origin == OriginStored && !preserveOriginal {
		if err := disk.Delete(ctx, source.sourcePath); err != nil {
			m.logger.Warning("Failed to remove original %s: %v", source.sourcePath, err)
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate uuid: %w", err)
	}

	media := &models.Media{
		UUID:           &id,
		CollectionID:   plan.id,
		CollectionName: plan.name,
		Disk:           diskName,
		Path:           target.FullPath(),
		FileName:       target.FileName,
		MimeType:       source.MimeType,
		Size:           source.Size,
		Props:          props,
	}
	if owner := plan.orderScope.Owner; owner != nil {
		media.OwnerType = owner.Type
		media.OwnerID = owner.ID
	}

	if err := m.repository.Create(ctx, media, plan.orderScope); err != nil {
		return nil, &PersistenceError{Op: "create", Err: err}
	}

	return media, nil
}

func marshalProps(props map[string]interface{}) ([]byte, error) {
	if len(props) == 0 {
		return []byte("{}"), nil
	}

	doc, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}

	return doc, nil
}
