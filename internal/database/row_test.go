package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlschema/internal/errs"
)

// fakeRows replays a fixed result set.
type fakeRows struct {
	cols    []string
	data    [][]any
	pos     int
	scanErr error
	iterErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	for i, v := range r.data[r.pos-1] {
		*(dest[i].(*any)) = v
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     { r.closed = true }
func (r *fakeRows) Err() error                 { return r.iterErr }

func TestScanRows(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"name", "unique"},
		data: [][]any{{"idx_a", int64(1)}, {"idx_b", nil}},
	}

	got, err := ScanRows(rows)
	require.NoError(t, err)
	assert.True(t, rows.closed)
	assert.Equal(t, []map[string]any{
		{"name": "idx_a", "unique": int64(1)},
		{"name": "idx_b", "unique": nil},
	}, got)
}

func TestScanRows_Empty(t *testing.T) {
	got, err := ScanRows(&fakeRows{cols: []string{"name"}})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScanRows_Errors(t *testing.T) {
	classified := errs.New(errs.ErrKindTimeout, "deadline")

	_, err := ScanRows(&fakeRows{cols: []string{"a"}, data: [][]any{{1}}, scanErr: classified})
	assert.Same(t, classified, err)

	_, err = ScanRows(&fakeRows{cols: []string{"a"}, iterErr: errors.New("disk gone")})
	assert.True(t, errs.IsQueryFailed(err))
}
