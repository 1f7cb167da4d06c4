package models

import "time"

// File upload states.
const (
	FileStatusPending  = "pending"
	FileStatusUploaded = "uploaded"
)

// File describes an object a user uploads to object storage through a
// presigned URL. Only metadata lives in the database.
type File struct {
	ID          string
	UserID      int64
	StorageKey  string
	ContentType string
	Status      string
	CreatedAt   time.Time
}
