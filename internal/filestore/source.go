package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/koustreak/sqlschema/internal/errs"
)

// Scheme prefixes a database source held in object storage.
const Scheme = "s3://"

// sqliteHeader opens every SQLite database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// Location is a parsed "s3://bucket/key" source.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return Scheme + l.Bucket + "/" + l.Key }

// IsRemote reports whether source names an object rather than a local path.
func IsRemote(source string) bool {
	return strings.HasPrefix(strings.TrimSpace(source), Scheme)
}

// ParseLocation splits an "s3://bucket/key" source. An empty bucket
// ("s3:///key") falls back to defaultBucket.
func ParseLocation(source, defaultBucket string) (Location, error) {
	s := strings.TrimSpace(source)
	if !strings.HasPrefix(s, Scheme) {
		return Location{}, errs.Newf(errs.ErrKindInvalidInput, "source %q is not an %s location", source, Scheme)
	}
	bucket, key, _ := strings.Cut(strings.TrimPrefix(s, Scheme), "/")
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return Location{}, errs.Newf(errs.ErrKindInvalidInput, "source %q must name a bucket and an object key", source)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Fetch downloads the object at loc into a new temporary file under dir
// (os.TempDir when empty) and returns its path. The object must be a
// SQLite database. The caller removes the file when done.
func Fetch(ctx context.Context, store Store, loc Location, dir string) (string, error) {
	obj, err := store.GetObject(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return "", err
	}
	defer obj.Close()

	f, err := os.CreateTemp(dir, "sqlschema-*.db")
	if err != nil {
		return "", errs.Wrap(errs.ErrKindUnknown, "create download file", err)
	}
	path := f.Name()

	if err := copyDatabase(f, obj); err != nil {
		f.Close()
		os.Remove(path)
		return "", errs.Wrap(errs.KindOf(err), "download "+loc.String(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", errs.Wrap(errs.ErrKindUnknown, "write download file", err)
	}
	return path, nil
}

func copyDatabase(dst io.Writer, src io.Reader) error {
	head := make([]byte, len(sqliteHeader))
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return errs.Wrap(errs.ErrKindConnectionFailed, "read object", err)
	}
	if !bytes.Equal(head[:n], sqliteHeader) {
		return errs.New(errs.ErrKindInvalidInput, "object is not a SQLite database")
	}
	if _, err := dst.Write(head); err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "write download file", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "read object", err)
	}
	return nil
}
