package schema

import (
	"fmt"
	"time"
)

// DataType is the portable category a native column type normalizes to.
type DataType int

const (
	// DataTypeObject covers untyped, binary and anything unrecognised.
	DataTypeObject DataType = iota
	DataTypeInt64
	DataTypeDecimal
	DataTypeString
)

func (d DataType) String() string {
	switch d {
	case DataTypeInt64:
		return "int64"
	case DataTypeDecimal:
		return "decimal"
	case DataTypeString:
		return "string"
	default:
		return "object"
	}
}

// MarshalText renders the category name, so JSON and YAML output read
// "int64" rather than 1.
func (d DataType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DataType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "int64":
		*d = DataTypeInt64
	case "decimal":
		*d = DataTypeDecimal
	case "string":
		*d = DataTypeString
	case "object":
		*d = DataTypeObject
	default:
		return fmt.Errorf("unknown data type %q", b)
	}
	return nil
}

// Table describes a base table. The catalog exposes neither a description
// nor a creation time, so those are always empty.
type Table struct {
	Database    string    `json:"database" yaml:"database"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	DateCreated time.Time `json:"date_created" yaml:"date_created"`
}

// View describes a view. Same rules as Table.
type View struct {
	Database    string    `json:"database" yaml:"database"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	DateCreated time.Time `json:"date_created" yaml:"date_created"`
}

// Column is a table column. Size, Precision and Scale are always zero.
type Column struct {
	Table              string   `json:"table" yaml:"table"`
	Name               string   `json:"name" yaml:"name"`
	DataType           DataType `json:"data_type" yaml:"data_type"`
	NativeType         string   `json:"native_type" yaml:"native_type"`
	Size               int      `json:"size" yaml:"size"`
	Precision          int      `json:"precision" yaml:"precision"`
	Scale              int      `json:"scale" yaml:"scale"`
	AllowNull          bool     `json:"allow_null" yaml:"allow_null"`
	IsPrimaryKeyMember bool     `json:"is_primary_key_member" yaml:"is_primary_key_member"`
	IsUnique           bool     `json:"is_unique" yaml:"is_unique"`
}

// ViewColumn is a view column.
type ViewColumn struct {
	View       string   `json:"view" yaml:"view"`
	Name       string   `json:"name" yaml:"name"`
	DataType   DataType `json:"data_type" yaml:"data_type"`
	NativeType string   `json:"native_type" yaml:"native_type"`
	Size       int      `json:"size" yaml:"size"`
	Precision  int      `json:"precision" yaml:"precision"`
	Scale      int      `json:"scale" yaml:"scale"`
	AllowNull  bool     `json:"allow_null" yaml:"allow_null"`
}

// Index lists its member columns by name in index order.
type Index struct {
	Table         string   `json:"table" yaml:"table"`
	Name          string   `json:"name" yaml:"name"`
	MemberColumns []string `json:"member_columns" yaml:"member_columns"`
	IsUnique      bool     `json:"is_unique" yaml:"is_unique"`
	IsPrimaryKey  bool     `json:"is_primary_key" yaml:"is_primary_key"`
	IsClustered   bool     `json:"is_clustered" yaml:"is_clustered"`
}

// PrimaryKey is the table's primary-key index seen as a key.
type PrimaryKey struct {
	Table         string   `json:"table" yaml:"table"`
	Name          string   `json:"name" yaml:"name"`
	MemberColumns []string `json:"member_columns" yaml:"member_columns"`
}

// ForeignKey is a single-column reference. A composite constraint is
// reported as one ForeignKey per column.
type ForeignKey struct {
	Database   string `json:"database" yaml:"database"`
	Name       string `json:"name" yaml:"name"`
	FromTable  string `json:"from_table" yaml:"from_table"`
	FromColumn string `json:"from_column" yaml:"from_column"`
	ToTable    string `json:"to_table" yaml:"to_table"`
	ToColumn   string `json:"to_column" yaml:"to_column"`
	OnUpdate   string `json:"on_update,omitempty" yaml:"on_update,omitempty"`
	OnDelete   string `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
}

// Command is a stored command (procedure). None of the supported engines
// report any.
type Command struct {
	Database string `json:"database" yaml:"database"`
	Name     string `json:"name" yaml:"name"`
}

type CommandParameter struct {
	Name       string   `json:"name" yaml:"name"`
	DataType   DataType `json:"data_type" yaml:"data_type"`
	NativeType string   `json:"native_type" yaml:"native_type"`
}

type CommandResult struct {
	Name    string       `json:"name" yaml:"name"`
	Columns []ViewColumn `json:"columns" yaml:"columns"`
}

// ExtendedProperty is a free-form name/value annotation on a schema object.
type ExtendedProperty struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// TableSchema is a table with everything assembled for it.
type TableSchema struct {
	Table       `yaml:",inline"`
	Columns     []Column         `json:"columns" yaml:"columns"`
	Indexes     map[string]Index `json:"indexes" yaml:"indexes"`
	PrimaryKey  *PrimaryKey      `json:"primary_key" yaml:"primary_key"`
	ForeignKeys []ForeignKey     `json:"foreign_keys" yaml:"foreign_keys"`
}

// ViewSchema is a view with its columns and defining query.
type ViewSchema struct {
	View    `yaml:",inline"`
	Columns []ViewColumn `json:"columns" yaml:"columns"`
	Text    string       `json:"text" yaml:"text"`
}

// Database is a full snapshot taken in one session.
type Database struct {
	Name   string        `json:"name" yaml:"name"`
	Tables []TableSchema `json:"tables" yaml:"tables"`
	Views  []ViewSchema  `json:"views" yaml:"views"`
}

// Table returns the named table from the snapshot.
func (d *Database) Table(name string) (*TableSchema, bool) {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i], true
		}
	}
	return nil, false
}

// View returns the named view from the snapshot.
func (d *Database) View(name string) (*ViewSchema, bool) {
	for i := range d.Views {
		if d.Views[i].Name == name {
			return &d.Views[i], true
		}
	}
	return nil, false
}
