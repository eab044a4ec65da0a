package post

import (
	"io"
	"time"
)

// FieldName is the only multipart field accepted by Upload.
const FieldName = "data"

// Post binds a public identifier to a stored blob and its content type.
type Post struct {
	ID            string    `json:"id"`
	StorageHandle string    `json:"storageHandle"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Part is one decoded multipart part.
type Part struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UploadResult is returned by Upload. Created is false when the request
// carried no parts and nothing was stored.
type UploadResult struct {
	Created  bool
	Post     Post
	Location string
}

// Download carries the post record and an open stream over its blob.
// Callers must close Body.
type Download struct {
	Post Post
	Body io.ReadCloser
}

// BlobObject describes an object persisted by a BlobStore.
type BlobObject struct {
	Handle    string
	Name      string
	SizeBytes int64
	CreatedAt time.Time
}
