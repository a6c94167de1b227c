// Package sqlite implements the SQLite driver adapter (spec §4.3) on top of modernc.org/sqlite
// (a pure-Go driver, so this adapter needs no CGo toolchain to be available) and sqlcommon's
// shared operation contracts.
package sqlite

import (
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/drivers/sqlcommon"
	"github.com/hydrogend/dbcore/engine"
	_ "modernc.org/sqlite"
	"strings"
)

// SQLDriverName is the name this backend registers itself under in database/sql.
const SQLDriverName = "sqlite"

// NewVTable builds the engine.VTable for the SQLite backend.
func NewVTable() *engine.VTable {
	return sqlcommon.Adapter{
		EngineType:         engine.SQLite,
		SQLDriverName:      SQLDriverName,
		BuildDSN:           buildDSN,
		EscapeLiteral:      escapeLiteral,
		ValidateConnString: validateConnString,
	}.Build()
}

// buildDSN returns cfg.Database verbatim: for SQLite the connection string IS the DSN, whether
// it's a filesystem path or the special ":memory:" name.
func buildDSN(cfg *connstring.ConnectionConfig) string {
	return cfg.Database
}

// validateConnString treats any non-empty string as valid, including clearly malformed
// filesystem paths — the spec documents this as lenient by design, not a gap.
func validateConnString(s string) bool {
	return s != ""
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
