package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/schema"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindCardinality:
		return http.StatusConflict
	case errs.ErrKindUnsupported:
		return http.StatusNotImplemented
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), errorBody{Error: err.Error(), Kind: errs.KindOf(err).String()})
}

// reply writes v, or the error's status when err is set.
func reply(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// lookupTable resolves the {table} parameter against the table list so
// unknown names get a 404 rather than an empty result.
func (s *Server) lookupTable(ctx context.Context, name string) (schema.Table, error) {
	tables, err := s.reader.Tables(ctx)
	if err != nil {
		return schema.Table{}, err
	}
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	return schema.Table{}, errs.Newf(errs.ErrKindNotFound, "no table named %q", name)
}

func (s *Server) lookupView(ctx context.Context, name string) (schema.View, error) {
	views, err := s.reader.Views(ctx)
	if err != nil {
		return schema.View{}, err
	}
	for _, v := range views {
		if v.Name == name {
			return v, nil
		}
	}
	return schema.View{}, errs.Newf(errs.ErrKindNotFound, "no view named %q", name)
}

func (s *Server) handleDatabase(w http.ResponseWriter, r *http.Request) {
	name, err := s.reader.DatabaseName(r.Context())
	reply(w, map[string]string{"name": name}, err)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	db, err := s.reader.Inspect(r.Context())
	reply(w, db, err)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.reader.Commands(r.Context())
	reply(w, cmds, err)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.reader.Tables(r.Context())
	reply(w, tables, err)
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	views, err := s.reader.Views(r.Context())
	reply(w, views, err)
}

// withTable runs fn for the resolved {table} parameter.
func (s *Server) withTable(w http.ResponseWriter, r *http.Request, fn func(context.Context, schema.Table) (any, error)) {
	t, err := s.lookupTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := fn(r.Context(), t)
	reply(w, v, err)
}

func (s *Server) withView(w http.ResponseWriter, r *http.Request, fn func(context.Context, schema.View) (any, error)) {
	v, err := s.lookupView(r.Context(), chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := fn(r.Context(), v)
	reply(w, out, err)
}

func (s *Server) handleTableColumns(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(ctx context.Context, t schema.Table) (any, error) {
		return s.reader.TableColumns(ctx, t)
	})
}

func (s *Server) handleTableIndexes(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(ctx context.Context, t schema.Table) (any, error) {
		return s.reader.TableIndexes(ctx, t)
	})
}

// handlePrimaryKey answers null for a table without a primary key.
func (s *Server) handlePrimaryKey(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(ctx context.Context, t schema.Table) (any, error) {
		return s.reader.TablePrimaryKey(ctx, t)
	})
}

func (s *Server) handleForeignKeys(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(ctx context.Context, t schema.Table) (any, error) {
		return s.reader.TableKeys(ctx, t)
	})
}

func (s *Server) handleViewColumns(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(ctx context.Context, v schema.View) (any, error) {
		return s.reader.ViewColumns(ctx, v)
	})
}

func (s *Server) handleViewText(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(ctx context.Context, v schema.View) (any, error) {
		text, err := s.reader.ViewText(ctx, v)
		return map[string]string{"view": v.Name, "text": text}, err
	})
}
