package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vortechron/go-mediastorage/mediastorage"
	"github.com/vortechron/go-mediastorage/models"
)

// SQLMediaRepository implements the MediaRepository interface using
// *sql.DB with Postgres placeholders.
type SQLMediaRepository struct {
	db *sql.DB
}

func NewSQLMediaRepository(db *sql.DB) *SQLMediaRepository {
	return &SQLMediaRepository{
		db: db,
	}
}

// CreateTablesIfNotExist creates the media table if it doesn't exist.
func (r *SQLMediaRepository) CreateTablesIfNotExist(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS media (
		id BIGSERIAL PRIMARY KEY,
		uuid VARCHAR(36) UNIQUE,
		owner_type VARCHAR(255),
		owner_id BIGINT,
		media_id BIGINT UNIQUE,
		collection_id BIGINT,
		collection_name VARCHAR(255),
		disk VARCHAR(255) NOT NULL,
		path VARCHAR(1024) NOT NULL,
		derived_variants JSON,
		file_name VARCHAR(255) NOT NULL,
		mime_type VARCHAR(255),
		size BIGINT NOT NULL,
		properties JSON NOT NULL,
		"order" INT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create media table: %w", err)
	}

	indexes := `CREATE INDEX IF NOT EXISTS idx_media_owner ON media (owner_type, owner_id)`
	if _, err := r.db.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create media indexes: %w", err)
	}

	return nil
}

const mediaColumns = `id, uuid, owner_type, owner_id, media_id, collection_id, collection_name,
	disk, path, derived_variants, file_name, mime_type, size, properties, "order", created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMedia(row rowScanner) (*models.Media, error) {
	var media models.Media
	var uuidStr sql.NullString
	var ownerType, collectionName, mimeType sql.NullString
	var ownerID, mediaID, collectionID sql.NullInt64
	var conversions, props []byte
	var order sql.NullInt32
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&media.ID,
		&uuidStr,
		&ownerType,
		&ownerID,
		&mediaID,
		&collectionID,
		&collectionName,
		&media.Disk,
		&media.Path,
		&conversions,
		&media.FileName,
		&mimeType,
		&media.Size,
		&props,
		&order,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if uuidStr.Valid {
		id, err := uuid.FromString(uuidStr.String)
		if err == nil {
			media.UUID = &id
		}
	}

	media.OwnerType = ownerType.String
	media.OwnerID = uint64(ownerID.Int64)
	media.MediaID = uint64(mediaID.Int64)
	media.CollectionID = uint64(collectionID.Int64)
	media.CollectionName = collectionName.String
	media.MimeType = mimeType.String
	media.Props = props
	media.Order = int(order.Int32)

	if len(conversions) > 0 {
		if err := json.Unmarshal(conversions, &media.Conversions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal derived variants: %w", err)
		}
	}

	if createdAt.Valid {
		t := createdAt.Time
		media.CreatedAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		media.UpdatedAt = &t
	}

	return &media, nil
}

func marshalConversions(media *models.Media) ([]byte, error) {
	if media.Conversions == nil {
		return []byte("[]"), nil
	}

	conversions, err := json.Marshal(media.Conversions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal derived variants: %w", err)
	}

	return conversions, nil
}

// filterClause builds the WHERE fragment for a MediaFilter. Placeholders
// start at $1.
func filterClause(filter mediastorage.MediaFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Owner != nil {
		clauses = append(clauses, "owner_type = "+arg(filter.Owner.Type))
		clauses = append(clauses, "owner_id = "+arg(filter.Owner.ID))
	}

	if filter.CollectionID != 0 {
		clauses = append(clauses, "collection_id = "+arg(filter.CollectionID))
	} else if filter.CollectionName != "" {
		clauses = append(clauses, "collection_name = "+arg(filter.CollectionName))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Create allocates media_id and order and inserts the record inside one
// transaction.
func (r *SQLMediaRepository) Create(ctx context.Context, media *models.Media, orderScope mediastorage.MediaFilter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxMediaID uint64
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(media_id), 0) FROM media").Scan(&maxMediaID)
	if err != nil {
		return fmt.Errorf("failed to read max media id: %w", err)
	}

	where, args := filterClause(orderScope)
	var maxOrder int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX("order"), 0) FROM media`+where, args...).Scan(&maxOrder)
	if err != nil {
		return fmt.Errorf("failed to read max order: %w", err)
	}

	media.MediaID = maxMediaID + 1
	media.Order = maxOrder + 1

	now := time.Now()
	media.CreatedAt = &now
	media.UpdatedAt = &now

	conversions, err := marshalConversions(media)
	if err != nil {
		return err
	}

	var uuidStr interface{}
	if media.UUID != nil {
		uuidStr = media.UUID.String()
	}

	query := `
	INSERT INTO media (uuid, owner_type, owner_id, media_id, collection_id, collection_name,
		disk, path, derived_variants, file_name, mime_type, size, properties, "order", created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id
	`

	err = tx.QueryRowContext(ctx, query,
		uuidStr,
		media.OwnerType,
		media.OwnerID,
		media.MediaID,
		media.CollectionID,
		media.CollectionName,
		media.Disk,
		media.Path,
		conversions,
		media.FileName,
		media.MimeType,
		media.Size,
		media.Props,
		media.Order,
		media.CreatedAt,
		media.UpdatedAt,
	).Scan(&media.ID)
	if err != nil {
		return fmt.Errorf("failed to create media record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *SQLMediaRepository) Save(ctx context.Context, media *models.Media) error {
	now := time.Now()
	media.UpdatedAt = &now

	conversions, err := marshalConversions(media)
	if err != nil {
		return err
	}

	query := `
	UPDATE media SET uuid = $1, owner_type = $2, owner_id = $3, media_id = $4, collection_id = $5,
		collection_name = $6, disk = $7, path = $8, derived_variants = $9, file_name = $10,
		mime_type = $11, size = $12, properties = $13, "order" = $14, updated_at = $15
	WHERE id = $16
	`

	var uuidStr interface{}
	if media.UUID != nil {
		uuidStr = media.UUID.String()
	}

	_, err = r.db.ExecContext(ctx, query,
		uuidStr,
		media.OwnerType,
		media.OwnerID,
		media.MediaID,
		media.CollectionID,
		media.CollectionName,
		media.Disk,
		media.Path,
		conversions,
		media.FileName,
		media.MimeType,
		media.Size,
		media.Props,
		media.Order,
		media.UpdatedAt,
		media.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save media record: %w", err)
	}

	return nil
}

func (r *SQLMediaRepository) Delete(ctx context.Context, media *models.Media) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media WHERE id = $1", media.ID)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	return nil
}

func (r *SQLMediaRepository) FindByID(ctx context.Context, id uint64) (*models.Media, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = $1", id)

	media, err := scanMedia(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media by ID: %w", err)
	}

	return media, nil
}

func (r *SQLMediaRepository) FindByMediaID(ctx context.Context, mediaID uint64) (*models.Media, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media WHERE media_id = $1", mediaID)

	media, err := scanMedia(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media by media id: %w", err)
	}

	return media, nil
}

func (r *SQLMediaRepository) FirstMatching(ctx context.Context, filter mediastorage.MediaFilter) (*models.Media, error) {
	where, args := filterClause(filter)
	row := r.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media"+where+" ORDER BY id ASC LIMIT 1", args...)

	media, err := scanMedia(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media in scope: %w", err)
	}

	return media, nil
}

func (r *SQLMediaRepository) FindMatching(ctx context.Context, filter mediastorage.MediaFilter) ([]*models.Media, error) {
	where, args := filterClause(filter)
	rows, err := r.db.QueryContext(ctx, "SELECT "+mediaColumns+` FROM media`+where+` ORDER BY "order" ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find media in scope: %w", err)
	}
	defer rows.Close()

	return collectMedia(rows)
}

func (r *SQLMediaRepository) All(ctx context.Context) ([]*models.Media, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+mediaColumns+" FROM media")
	if err != nil {
		return nil, fmt.Errorf("failed to find media: %w", err)
	}
	defer rows.Close()

	return collectMedia(rows)
}

func collectMedia(rows *sql.Rows) ([]*models.Media, error) {
	var media []*models.Media

	for rows.Next() {
		entry, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		media = append(media, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media rows: %w", err)
	}

	return media, nil
}

func (r *SQLMediaRepository) NextMediaID(ctx context.Context) (uint64, error) {
	var maxMediaID uint64

	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(media_id), 0) FROM media").Scan(&maxMediaID)
	if err != nil {
		return 0, fmt.Errorf("failed to read max media id: %w", err)
	}

	return maxMediaID + 1, nil
}

func (r *SQLMediaRepository) MaxCollectionID(ctx context.Context) (uint64, error) {
	var maxCollectionID uint64

	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(collection_id), 0) FROM media").Scan(&maxCollectionID)
	if err != nil {
		return 0, fmt.Errorf("failed to read max collection id: %w", err)
	}

	return maxCollectionID, nil
}

var _ mediastorage.MediaRepository = (*SQLMediaRepository)(nil)
