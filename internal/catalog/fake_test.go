package catalog

import (
	"context"
	"strings"

	"github.com/koustreak/sqlschema/internal/database"
)

// fakeDB answers queries from canned result sets keyed by a SQL fragment
// and records what was asked.
type fakeDB struct {
	results map[string]fakeResult
	queries []string
	args    [][]any
}

type fakeResult struct {
	cols []string
	data [][]any
	err  error
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	for fragment, res := range f.results {
		if strings.Contains(sql, fragment) {
			if res.err != nil {
				return nil, res.err
			}
			return &fakeRows{cols: res.cols, data: res.data}, nil
		}
	}
	return &fakeRows{}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) (database.Row, error) {
	panic("catalog adapters do not use QueryRow")
}

type fakeRows struct {
	cols []string
	data [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, v := range r.data[r.pos-1] {
		*(dest[i].(*any)) = v
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }
