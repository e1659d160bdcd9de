// Package render writes schema results as text, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/sqlschema/internal/errs"
	"github.com/koustreak/sqlschema/internal/filestore"
	"github.com/koustreak/sqlschema/internal/schema"
)

// Formats accepted by New.
const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

// Renderer writes values in one format.
type Renderer struct {
	w      io.Writer
	format string

	title *color.Color
	mark  *color.Color
	dim   *color.Color
}

// New returns a Renderer for format. Colors follow color.NoColor unless
// plain is set.
func New(w io.Writer, format string, plain bool) (*Renderer, error) {
	switch format {
	case Text, JSON, YAML:
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown output format %q (want text, json or yaml)", format)
	}

	r := &Renderer{
		w:      w,
		format: format,
		title:  color.New(color.FgCyan, color.Bold),
		mark:   color.New(color.FgGreen),
		dim:    color.New(color.FgHiBlack),
	}
	if plain {
		r.title.DisableColor()
		r.mark.DisableColor()
		r.dim.DisableColor()
	}
	return r, nil
}

// Render writes v. Text output understands the schema and filestore
// result types; anything else falls back to its %v form.
func (r *Renderer) Render(v any) error {
	switch r.format {
	case JSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	switch x := v.(type) {
	case *schema.Database:
		return r.database(x)
	case *schema.TableSchema:
		return r.table(x)
	case *schema.ViewSchema:
		return r.view(x)
	case []schema.Table:
		names := make([]string, len(x))
		for i, t := range x {
			names[i] = t.Name
		}
		return r.names(names)
	case []schema.View:
		names := make([]string, len(x))
		for i, v := range x {
			names[i] = v.Name
		}
		return r.names(names)
	case []filestore.ObjectInfo:
		return r.objects(x)
	case []filestore.BucketInfo:
		names := make([]string, len(x))
		for i, b := range x {
			names[i] = b.Name
		}
		return r.names(names)
	default:
		_, err := fmt.Fprintln(r.w, v)
		return err
	}
}

func (r *Renderer) names(names []string) error {
	for _, n := range names {
		if _, err := fmt.Fprintln(r.w, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) database(db *schema.Database) error {
	r.title.Fprintf(r.w, "Database %s\n", db.Name)
	fmt.Fprintf(r.w, "%d tables, %d views\n", len(db.Tables), len(db.Views))
	for i := range db.Tables {
		fmt.Fprintln(r.w)
		if err := r.table(&db.Tables[i]); err != nil {
			return err
		}
	}
	for i := range db.Views {
		fmt.Fprintln(r.w)
		if err := r.view(&db.Views[i]); err != nil {
			return err
		}
	}
	return nil
}

func flag(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func (r *Renderer) table(t *schema.TableSchema) error {
	r.title.Fprintf(r.w, "Table %s\n", t.Name)

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNATIVE\tNULL\tPK\tUNIQUE")
	for _, c := range t.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name, c.DataType, c.NativeType, flag(c.AllowNull), flag(c.IsPrimaryKeyMember), flag(c.IsUnique))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if t.PrimaryKey != nil {
		r.mark.Fprint(r.w, "primary key ")
		fmt.Fprintf(r.w, "%s (%s)\n", t.PrimaryKey.Name, strings.Join(t.PrimaryKey.MemberColumns, ", "))
	}

	if len(t.Indexes) > 0 {
		names := make([]string, 0, len(t.Indexes))
		for n := range t.Indexes {
			names = append(names, n)
		}
		sort.Strings(names)

		tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tCOLUMNS\tUNIQUE\tPK")
		for _, n := range names {
			ix := t.Indexes[n]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				ix.Name, strings.Join(ix.MemberColumns, ", "), flag(ix.IsUnique), flag(ix.IsPrimaryKey))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, fk := range t.ForeignKeys {
		r.mark.Fprint(r.w, "foreign key ")
		fmt.Fprintf(r.w, "%s: %s -> %s.%s", fk.Name, fk.FromColumn, fk.ToTable, fk.ToColumn)
		if fk.OnDelete != "" || fk.OnUpdate != "" {
			r.dim.Fprintf(r.w, " (on update %s, on delete %s)", fk.OnUpdate, fk.OnDelete)
		}
		fmt.Fprintln(r.w)
	}
	return nil
}

func (r *Renderer) view(v *schema.ViewSchema) error {
	r.title.Fprintf(r.w, "View %s\n", v.Name)

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNATIVE\tNULL")
	for _, c := range v.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.DataType, c.NativeType, flag(c.AllowNull))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if v.Text != "" {
		r.dim.Fprintln(r.w, v.Text)
	}
	return nil
}

func (r *Renderer) objects(objs []filestore.ObjectInfo) error {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	for _, o := range objs {
		if o.IsDir {
			fmt.Fprintf(tw, "%s\t-\t\n", o.Key)
			continue
		}
		modified := ""
		if !o.LastModified.IsZero() {
			modified = o.LastModified.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, modified)
	}
	return tw.Flush()
}
