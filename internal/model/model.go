package model

import "time"

// Model is the metadata of an uploaded 3D asset.
// ID and UploadedAt are assigned by the repository at insert time.
type Model struct {
	ID         string    `json:"id"         db:"id"`
	Name       string    `json:"name"       db:"name"`
	FileURL    string    `json:"fileUrl"    db:"file_url"`
	FileType   string    `json:"fileType"   db:"file_type"`
	FileSize   float64   `json:"fileSize"   db:"file_size"`
	UploadedBy string    `json:"uploadedBy" db:"uploaded_by"` // username of the uploader
	UploadedAt time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// InsertModel is the caller-supplied shape for registering an upload.
type InsertModel struct {
	Name       string  `json:"name"`
	FileURL    string  `json:"fileUrl"`
	FileType   string  `json:"fileType"`
	FileSize   float64 `json:"fileSize"`
	UploadedBy string  `json:"uploadedBy"`
}
