package model

import (
	"encoding/json"
	"time"
)

// Annotation is a spatial note attached to a room.
//
// Position is free-form JSON (coordinates, anchor ids, ...) and is stored
// verbatim. Description is nullable, so it is a pointer: nil means "no
// description", which is different from an empty string.
type Annotation struct {
	ID          string          `json:"id"          db:"id"`
	RoomID      string          `json:"roomId"      db:"room_id"`
	Title       string          `json:"title"       db:"title"`
	Description *string         `json:"description" db:"description"`
	Position    json.RawMessage `json:"position"    db:"position"`
	CreatedBy   string          `json:"createdBy"   db:"created_by"` // username of the author
	CreatedAt   time.Time       `json:"createdAt"   db:"created_at"`
}

// InsertAnnotation is the caller-supplied shape for creating an annotation.
type InsertAnnotation struct {
	RoomID      string          `json:"roomId"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Position    json.RawMessage `json:"position"`
	CreatedBy   string          `json:"createdBy"`
}
