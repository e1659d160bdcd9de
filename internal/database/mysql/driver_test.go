package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/koustreak/sqlschema/internal/database"
	"github.com/koustreak/sqlschema/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"access denied", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindPermissionDenied},
		{"unknown database", &mysql.MySQLError{Number: 1049}, errs.ErrKindNotFound},
		{"too many connections", &mysql.MySQLError{Number: 1040}, errs.ErrKindConnectionFailed},
		{"no such table", &mysql.MySQLError{Number: 1146}, errs.ErrKindQueryFailed},
		{"execution time", &mysql.MySQLError{Number: 3024}, errs.ErrKindTimeout},
		{"bad connection", mysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
		{"other", errors.New("boom"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "catalog query")
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(context.Background(), database.DefaultConfig(database.DriverMySQL, "user@tcp(127.0.0.1:3306)/db?timeout=soon"))
	assert.True(t, errs.IsInvalidInput(err), "got %v", err)
}
