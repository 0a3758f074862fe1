// Package database backs the DB-scheme path of the EXT opcode
// (SPEC_FULL.md §4.2a): an extension path carrying a recognized DSN
// scheme (sqlite:, postgres:, mysql:, sqlserver:) opens a database/sql
// handle through the matching driver and exposes a small exports map
// (connected, driver, dsn) plus a query-shaped callable stub,
// consistent with spec §1's stance that opcode bodies are
// illustrative rather than exhaustive.
package database

import (
	"database/sql"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	rvmerrors "ravm/internal/errors"
	"ravm/internal/ident"
	"ravm/internal/value"
)

var typeQueryFunc = ident.NewType("query_func", nil)

// Scheme is a recognized DSN prefix mapped to its database/sql driver
// name.
type Scheme struct {
	Prefix string
	Driver string
}

// schemes is checked in order; sqlite's "sqlite::memory:" and
// "sqlite:/path/to.db" both match the "sqlite:" prefix.
var schemes = []Scheme{
	{Prefix: "sqlite:", Driver: "sqlite"},
	{Prefix: "postgres:", Driver: "postgres"},
	{Prefix: "mysql:", Driver: "mysql"},
	{Prefix: "sqlserver:", Driver: "sqlserver"},
}

// IsDBDSN reports whether path carries a recognized DB scheme, so the
// EXT executor can route it here instead of the ordinary static-link
// (.ra/.rsi) path.
func IsDBDSN(path string) bool {
	_, ok := matchScheme(path)
	return ok
}

func matchScheme(path string) (Scheme, bool) {
	for _, s := range schemes {
		if strings.HasPrefix(path, s.Prefix) {
			return s, true
		}
	}
	return Scheme{}, false
}

// Load opens dsn through the matching driver and returns an Extension
// value carrying the connection's exported bindings. A malformed DSN
// or a failed handshake yields connected=false alongside an IOError,
// matching SPEC_FULL.md §8 scenario 7, rather than a hard failure —
// the VM program observes the failure through conn::connected instead
// of losing the extension value entirely.
func Load(dsn string) (*value.Extension, error) {
	scheme, ok := matchScheme(dsn)
	if !ok {
		return nil, rvmerrors.New(rvmerrors.LinkError, "unrecognized extension DSN scheme", dsn)
	}

	identStr := uuid.NewString()
	ext := value.NewExtension(identStr, dsn)
	ext.Exports["driver"] = value.NewString(scheme.Driver)
	ext.Exports["dsn"] = value.NewString(dsn)

	driverDSN := strings.TrimPrefix(dsn, scheme.Prefix)
	db, err := sql.Open(scheme.Driver, driverDSN)
	if err != nil {
		ext.Exports["connected"] = value.NewBool(false)
		return ext, rvmerrors.Wrap(rvmerrors.IOError, err, "failed to open DSN", dsn)
	}
	if err := db.Ping(); err != nil {
		ext.Exports["connected"] = value.NewBool(false)
		db.Close()
		return ext, rvmerrors.Wrap(rvmerrors.IOError, err, "failed to connect", dsn)
	}

	ext.Exports["connected"] = value.NewBool(true)
	ext.Exports["query"] = newQueryFunc(db)
	return ext, nil
}

// QueryFunc is the illustrative query-shaped callable stub
// SPEC_FULL.md §4.2a calls for: a value.Value wrapping the live
// *sql.DB so VM code holding the extension's "query" export can drive
// it, without internal/value or internal/engine needing to know about
// database/sql. CALL dispatch against a native body like this is
// outside the opcode table's implemented subset (SPEC_FULL.md §4.9a);
// Query is reachable only through direct Go calls.
type QueryFunc struct {
	id ident.Identifier
	db *sql.DB
}

func newQueryFunc(db *sql.DB) *QueryFunc {
	return &QueryFunc{id: ident.New(ident.CategoryInstance), db: db}
}

func (q *QueryFunc) TypeName() string            { return "query_func" }
func (q *QueryFunc) TypeID() ident.TypeIdentifier { return typeQueryFunc }
func (q *QueryFunc) InstanceID() ident.Identifier { return q.id }
func (q *QueryFunc) ValueStr() string             { return "<query_func>" }
func (q *QueryFunc) EscapedStr() string           { return q.ValueStr() }
func (q *QueryFunc) ToBool() bool                 { return true }

// Copy shares the underlying connection rather than cloning it: a
// live *sql.DB handle is not a value with copy semantics.
func (q *QueryFunc) Copy() value.Value { return q }

func (q *QueryFunc) UpdateFrom(other value.Value) bool {
	o, ok := other.(*QueryFunc)
	if !ok {
		return false
	}
	q.db = o.db
	return true
}

func (q *QueryFunc) Compare(other value.Value, relational value.Relational) (bool, error) {
	o, ok := other.(*QueryFunc)
	switch relational {
	case value.RT:
		return true, nil
	case value.RF:
		return false, nil
	case value.RE:
		return ok && q.id.Equal(o.id), nil
	case value.RNE:
		return !ok || !q.id.Equal(o.id), nil
	}
	return false, rvmerrors.New(rvmerrors.TypeError, "cannot order query_func values")
}

// Query runs a single SQL statement and returns the affected row count,
// the one operation representative enough to exercise the driver
// stack end to end without building a full result-set value type.
func (q *QueryFunc) Query(statement string, args ...any) (int64, error) {
	res, err := q.db.Exec(statement, args...)
	if err != nil {
		return 0, rvmerrors.Wrap(rvmerrors.IOError, err, "query failed", statement)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, rvmerrors.Wrap(rvmerrors.IOError, err, "failed to read affected row count")
	}
	return n, nil
}
