package filestore

import (
	"io"
	"time"
)

// BucketInfo describes a storage bucket.
type BucketInfo struct {
	Name string `json:"name" yaml:"name"`

	// CreatedAt may be zero if the backend does not expose creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "prod/shop.db").
	Key string `json:"key" yaml:"key"`

	// Size is the byte size of the object. -1 if unknown.
	Size int64 `json:"size" yaml:"size"`

	ContentType  string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty" yaml:"etag,omitempty"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`

	// IsDir is true for a virtual directory (common prefix).
	IsDir bool `json:"is_dir" yaml:"is_dir"`
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading.
type Object interface {
	io.ReadCloser

	Info() *ObjectInfo
}

// ListOptions controls how ListObjects filters results.
type ListOptions struct {
	// Prefix restricts results to keys starting with this string.
	Prefix string

	// Recursive lists every object under the prefix instead of grouping
	// by virtual directories.
	Recursive bool

	// Limit caps the number of results. 0 means no cap.
	Limit int
}
