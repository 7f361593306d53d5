package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vortechron/go-mediastorage/mediastorage"
	"github.com/vortechron/go-mediastorage/models"
	"gorm.io/gorm"
)

// GormMediaRepository implements the MediaRepository interface using gorm.
type GormMediaRepository struct {
	db *gorm.DB
}

func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{
		db: db,
	}
}

func (r *GormMediaRepository) AutoMigrate() error {
	err := r.db.AutoMigrate(&models.Media{})
	if err != nil {
		return fmt.Errorf("failed to migrate media model: %w", err)
	}
	return nil
}

// scoped applies a MediaFilter to a query. Collection id wins over
// collection name when both are set.
func scoped(tx *gorm.DB, filter mediastorage.MediaFilter) *gorm.DB {
	if filter.Owner != nil {
		tx = tx.Where("owner_type = ? AND owner_id = ?", filter.Owner.Type, filter.Owner.ID)
	}

	if filter.CollectionID != 0 {
		tx = tx.Where("collection_id = ?", filter.CollectionID)
	} else if filter.CollectionName != "" {
		tx = tx.Where("collection_name = ?", filter.CollectionName)
	}

	return tx
}

// Create inserts media, allocating its media id and order value inside
// one transaction with the insert. media_id is the global maximum plus
// one; order is the maximum within orderScope plus one.
func (r *GormMediaRepository) Create(ctx context.Context, media *models.Media, orderScope mediastorage.MediaFilter) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxMediaID uint64
		err := tx.Model(&models.Media{}).
			Select("COALESCE(MAX(media_id), 0)").
			Scan(&maxMediaID).Error
		if err != nil {
			return fmt.Errorf("failed to read max media id: %w", err)
		}

		var maxOrder int
		err = scoped(tx.Model(&models.Media{}), orderScope).
			Select(`COALESCE(MAX("order"), 0)`).
			Scan(&maxOrder).Error
		if err != nil {
			return fmt.Errorf("failed to read max order: %w", err)
		}

		media.MediaID = maxMediaID + 1
		media.Order = maxOrder + 1

		now := time.Now()
		media.CreatedAt = &now
		media.UpdatedAt = &now

		if err := tx.Create(media).Error; err != nil {
			return fmt.Errorf("failed to create media record: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (r *GormMediaRepository) Save(ctx context.Context, media *models.Media) error {
	tx := r.db.WithContext(ctx)

	now := time.Now()
	media.UpdatedAt = &now
	if media.CreatedAt == nil {
		media.CreatedAt = &now
	}

	if err := tx.Save(media).Error; err != nil {
		return fmt.Errorf("failed to save media record: %w", err)
	}

	return nil
}

func (r *GormMediaRepository) Delete(ctx context.Context, media *models.Media) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Delete(media).Error; err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	return nil
}

func (r *GormMediaRepository) FindByID(ctx context.Context, id uint64) (*models.Media, error) {
	var media models.Media

	tx := r.db.WithContext(ctx)
	if err := tx.Where("id = ?", id).First(&media).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media by ID: %w", err)
	}

	return &media, nil
}

func (r *GormMediaRepository) FindByMediaID(ctx context.Context, mediaID uint64) (*models.Media, error) {
	var media models.Media

	tx := r.db.WithContext(ctx)
	if err := tx.Where("media_id = ?", mediaID).First(&media).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media by media id: %w", err)
	}

	return &media, nil
}

func (r *GormMediaRepository) FirstMatching(ctx context.Context, filter mediastorage.MediaFilter) (*models.Media, error) {
	var media models.Media

	tx := scoped(r.db.WithContext(ctx), filter)
	if err := tx.First(&media).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media in scope: %w", err)
	}

	return &media, nil
}

func (r *GormMediaRepository) FindMatching(ctx context.Context, filter mediastorage.MediaFilter) ([]*models.Media, error) {
	var media []*models.Media

	tx := scoped(r.db.WithContext(ctx), filter)
	if err := tx.Order(`"order" ASC`).Find(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to find media in scope: %w", err)
	}

	return media, nil
}

func (r *GormMediaRepository) All(ctx context.Context) ([]*models.Media, error) {
	var media []*models.Media

	tx := r.db.WithContext(ctx)
	if err := tx.Find(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to find media: %w", err)
	}

	return media, nil
}

func (r *GormMediaRepository) NextMediaID(ctx context.Context) (uint64, error) {
	var maxMediaID uint64

	err := r.db.WithContext(ctx).Model(&models.Media{}).
		Select("COALESCE(MAX(media_id), 0)").
		Scan(&maxMediaID).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read max media id: %w", err)
	}

	return maxMediaID + 1, nil
}

func (r *GormMediaRepository) MaxCollectionID(ctx context.Context) (uint64, error) {
	var maxCollectionID uint64

	err := r.db.WithContext(ctx).Model(&models.Media{}).
		Select("COALESCE(MAX(collection_id), 0)").
		Scan(&maxCollectionID).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read max collection id: %w", err)
	}

	return maxCollectionID, nil
}

var _ mediastorage.MediaRepository = (*GormMediaRepository)(nil)
