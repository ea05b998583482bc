package domain

import (
	"time"
)

// FileRecord stores metadata about a file a student uploaded for a project.
// The bytes live in the remote file store; StorageID is the key there.
type FileRecord struct {
	Name        string    `bson:"name" json:"name"` // original filename
	URL         string    `bson:"url" json:"url"`
	StorageID   string    `bson:"storageId" json:"storageId"`
	ContentType string    `bson:"contentType,omitempty" json:"contentType,omitempty"`
	Size        int64     `bson:"size,omitempty" json:"size,omitempty"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
}
