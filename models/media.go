package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

// Media is a stored file together with its metadata record. The primary
// file lives at Path on Disk; every generated conversion of it is tracked
// in Conversions as a filename suffix so it can be located and removed
// later without touching the record again.
type Media struct {
	ID             uint64     `json:"id" gorm:"primaryKey"`
	UUID           *uuid.UUID `json:"uuid" gorm:"type:varchar(36);unique"`
	OwnerType      string     `json:"owner_type" gorm:"index:idx_owner"`
	OwnerID        uint64     `json:"owner_id" gorm:"index:idx_owner"`
	MediaID        uint64     `json:"media_id" gorm:"uniqueIndex"`
	CollectionID   uint64     `json:"collection_id" gorm:"index"`
	CollectionName string     `json:"collection_name"`
	Disk           string     `json:"disk"`
	Path           string     `json:"path"`
	Conversions    []string   `json:"derived_variants" gorm:"column:derived_variants;serializer:json"`
	FileName       string     `json:"file_name"`
	MimeType       string     `json:"mime_type"`
	Size           int64      `json:"size"`
	Props          []byte     `json:"properties" gorm:"column:properties;type:json"`
	Order          int        `json:"order" gorm:"column:order;index"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// TableName keeps the table name singular.
func (Media) TableName() string {
	return "media"
}

// HasOwner reports whether the record is attached to an owning entity.
func (m *Media) HasOwner() bool {
	return m.OwnerType != ""
}

// RegisterConversion records a conversion suffix so the generated file is
// cleaned up together with the record. Returns false when the suffix is
// already registered.
func (m *Media) RegisterConversion(suffix string) bool {
	for _, s := range m.Conversions {
		if s == suffix {
			return false
		}
	}
	m.Conversions = append(m.Conversions, suffix)
	return true
}

// ConversionPath resolves a registered suffix to the full path of the
// generated file, which lives next to the primary file.
func (m *Media) ConversionPath(suffix string) string {
	dir := filepath.Dir(m.Path)
	base := filepath.Base(m.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.ToSlash(filepath.Join(dir, stem+suffix))
}

// ConversionPaths returns the paths of every registered conversion file.
func (m *Media) ConversionPaths() []string {
	paths := make([]string, 0, len(m.Conversions))
	for _, suffix := range m.Conversions {
		paths = append(paths, m.ConversionPath(suffix))
	}

	return paths
}
