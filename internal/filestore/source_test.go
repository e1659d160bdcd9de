package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlschema/internal/errs"
)

type memObject struct {
	io.Reader
	info   *ObjectInfo
	closed *bool
}

func (o memObject) Close() error       { *o.closed = true; return nil }
func (o memObject) Info() *ObjectInfo { return o.info }

// memStore serves objects from memory.
type memStore struct {
	objects map[string][]byte
	closed  bool
}

func (s *memStore) Ping(context.Context) error { return nil }
func (s *memStore) Close() error               { return nil }

func (s *memStore) ListBuckets(context.Context) ([]BucketInfo, error) {
	return []BucketInfo{{Name: "schemas"}}, nil
}

func (s *memStore) ListObjects(context.Context, string, ListOptions) ([]ObjectInfo, error) {
	return nil, nil
}

func (s *memStore) GetObject(_ context.Context, bucket, key string) (Object, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "no object %s/%s", bucket, key)
	}
	info := &ObjectInfo{Key: key, Size: int64(len(data))}
	return memObject{Reader: bytes.NewReader(data), info: info, closed: &s.closed}, nil
}

func (s *memStore) StatObject(_ context.Context, bucket, key string) (*ObjectInfo, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no object")
	}
	return &ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in     string
		want   Location
		errors bool
	}{
		{in: "s3://schemas/prod/shop.db", want: Location{Bucket: "schemas", Key: "prod/shop.db"}},
		{in: "  s3://schemas/shop.db ", want: Location{Bucket: "schemas", Key: "shop.db"}},
		{in: "s3:///shop.db", want: Location{Bucket: "fallback", Key: "shop.db"}},
		{in: "s3://schemas", errors: true},
		{in: "s3://schemas/dir/", errors: true},
		{in: "/tmp/shop.db", errors: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in, "fallback")
			if tt.errors {
				assert.True(t, errs.IsInvalidInput(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, IsRemote("s3://a/b"))
	assert.False(t, IsRemote("shop.db"))
	assert.Equal(t, "s3://a/b.db", Location{Bucket: "a", Key: "b.db"}.String())
}

func TestFetch(t *testing.T) {
	content := append([]byte("SQLite format 3\x00"), bytes.Repeat([]byte{7}, 4096)...)
	store := &memStore{objects: map[string][]byte{"schemas/shop.db": content}}
	dir := t.TempDir()

	path, err := Fetch(context.Background(), store, Location{Bucket: "schemas", Key: "shop.db"}, dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.True(t, store.closed)
}

func TestFetch_Rejects(t *testing.T) {
	store := &memStore{objects: map[string][]byte{
		"schemas/notes.txt": []byte("just some notes, definitely not a database"),
		"schemas/tiny":      []byte("SQL"),
	}}

	tests := []struct {
		name string
		key  string
		kind errs.ErrKind
	}{
		{"missing", "absent.db", errs.ErrKindNotFound},
		{"not sqlite", "notes.txt", errs.ErrKindInvalidInput},
		{"truncated", "tiny", errs.ErrKindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Fetch(context.Background(), store, Location{Bucket: "schemas", Key: tt.key}, dir)
			assert.Equal(t, tt.kind, errs.KindOf(err))

			left, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, left, "failed downloads leave no file behind")
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, (*Config)(nil).Enabled())
	assert.False(t, (&Config{}).Enabled())
	assert.True(t, DefaultConfig("localhost:9000", "k", "s").Enabled())
}
