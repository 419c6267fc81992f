package models

import "time"

// Resource lifecycle states.
const (
	ResourceStatusPending = "pending"
	ResourceStatusIndexed = "indexed"
	ResourceStatusFailed  = "failed"
	ResourceStatusDeleted = "deleted"
)

// Resource is one uploaded curriculum document. Immutable once indexed;
// re-upload creates a new resource id rather than mutating this one.
// FullText is retained so the worker can index asynchronously and so a
// failed index run can be retried.
type Resource struct {
	ResourceID string    `bson:"_id" json:"resource_id"`
	Title      string    `bson:"title" json:"title"`
	ClassID    string    `bson:"class_id" json:"class_id"`
	Subject    string    `bson:"subject" json:"subject"`
	Term       string    `bson:"term" json:"term"`
	FullText   string    `bson:"full_text" json:"-"`
	Status     string    `bson:"status" json:"status"`
	ChunkCount int       `bson:"chunk_count" json:"chunk_count"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
	DeletedAt  time.Time `bson:"deleted_at,omitempty" json:"-"`
}

// UploadResourceRequest is what the upstream text extractor hands over:
// plain text plus metadata. File parsing happens before this service.
type UploadResourceRequest struct {
	Title   string `json:"title" binding:"required"`
	ClassID string `json:"class_id" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Term    string `json:"term"`
	Text    string `json:"text" binding:"required,min=50"`
}

// UploadResourceResponse reports how the upload was handled.
type UploadResourceResponse struct {
	ResourceID    string `json:"resource_id"`
	Status        string `json:"status"`
	ChunksIndexed int    `json:"chunks_indexed,omitempty"`
}
