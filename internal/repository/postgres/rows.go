package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/sakif/roomview/internal/model"
)

// Row types carry the GORM mapping so the model package stays free of
// storage tags.

type userRow struct {
	Username string `gorm:"column:username"`
	Password string `gorm:"column:password"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() *model.User {
	return &model.User{Username: r.Username, Password: r.Password}
}

type modelRow struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Name       string    `gorm:"column:name"`
	FileURL    string    `gorm:"column:file_url"`
	FileType   string    `gorm:"column:file_type"`
	FileSize   float64   `gorm:"column:file_size"`
	UploadedBy string    `gorm:"column:uploaded_by"`
	UploadedAt time.Time `gorm:"column:uploaded_at"`
}

func (modelRow) TableName() string { return "models" }

func (r modelRow) toModel() *model.Model {
	return &model.Model{
		ID:         r.ID,
		Name:       r.Name,
		FileURL:    r.FileURL,
		FileType:   r.FileType,
		FileSize:   r.FileSize,
		UploadedBy: r.UploadedBy,
		UploadedAt: r.UploadedAt,
	}
}

type annotationRow struct {
	ID          string         `gorm:"column:id;primaryKey"`
	RoomID      string         `gorm:"column:room_id"`
	Title       string         `gorm:"column:title"`
	Description *string        `gorm:"column:description"`
	Position    datatypes.JSON `gorm:"column:position;type:jsonb"`
	CreatedBy   string         `gorm:"column:created_by"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
}

func (annotationRow) TableName() string { return "annotations" }

func (r annotationRow) toModel() *model.Annotation {
	return &model.Annotation{
		ID:          r.ID,
		RoomID:      r.RoomID,
		Title:       r.Title,
		Description: r.Description,
		Position:    json.RawMessage(r.Position),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}
