// Package db2 implements the DB2 driver adapter (spec §4.3) against whatever database/sql
// driver is registered for DB2 access on the host — typically a CGo binding over unixODBC. No
// pure-Go DB2 driver exists anywhere in this module's dependency surface (see DESIGN.md), so
// this package never imports one; instead it targets a configurable database/sql driver name,
// defaulting to "odbc". On a machine with no such driver registered, NewVTable still returns a
// valid VTable with IsAvailable false, reproducing the spec's "driver remains registered but
// unavailable" behavior for free, rather than special-casing it.
package db2

import (
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/drivers/sqlcommon"
	"github.com/hydrogend/dbcore/engine"
	"strconv"
	"strings"
)

// DefaultSQLDriverName is the database/sql driver name this package looks for when the caller
// doesn't override it.
const DefaultSQLDriverName = "odbc"

// NewVTable builds the engine.VTable for the DB2 backend, looking for sqlDriverName in
// database/sql's driver registry. An empty sqlDriverName is replaced by DefaultSQLDriverName.
func NewVTable(sqlDriverName string) *engine.VTable {
	if sqlDriverName == "" {
		sqlDriverName = DefaultSQLDriverName
	}

	return sqlcommon.Adapter{
		EngineType:    engine.DB2,
		SQLDriverName: sqlDriverName,
		BuildDSN:      buildDSN,
		EscapeLiteral: escapeLiteral,
	}.Build()
}

// buildDSN renders cfg as a DB2 CLI/ODBC connection string in the same "DRIVER={...};KEY=VALUE"
// shape connstring.Parse accepts, so a round trip through Parse -> buildDSN is stable.
func buildDSN(cfg *connstring.ConnectionConfig) string {
	var b strings.Builder
	b.WriteString("DRIVER={IBM DB2 ODBC DRIVER};")

	writeAttr(&b, "HOSTNAME", cfg.Host)
	if cfg.Port != 0 {
		writeAttr(&b, "PORT", strconv.Itoa(int(cfg.Port)))
	}
	writeAttr(&b, "DATABASE", cfg.Database)
	writeAttr(&b, "UID", cfg.Username)
	writeAttr(&b, "PWD", cfg.Password)

	if cfg.SSLEnabled {
		writeAttr(&b, "SECURITY", "SSL")
	}

	return b.String()
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte(';')
}

// escapeLiteral doubles embedded single quotes, DB2's standard SQL string-literal escape.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
