// Package postgres implements the PostgreSQL driver adapter (spec §4.3) on top of
// github.com/lib/pq and sqlcommon's shared operation contracts.
package postgres

import (
	"fmt"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/drivers/sqlcommon"
	"github.com/hydrogend/dbcore/engine"
	_ "github.com/lib/pq"
	"strconv"
	"strings"
)

// SQLDriverName is the name this backend registers itself under in database/sql.
const SQLDriverName = "postgres"

// NewVTable builds the engine.VTable for the PostgreSQL backend.
func NewVTable() *engine.VTable {
	return sqlcommon.Adapter{
		EngineType:    engine.PostgreSQL,
		SQLDriverName: SQLDriverName,
		BuildDSN:      buildDSN,
		EscapeLiteral: escapeLiteral,
	}.Build()
}

// buildDSN renders cfg as a libpq keyword/value connection string.
func buildDSN(cfg *connstring.ConnectionConfig) string {
	var b strings.Builder

	writeKV(&b, "host", cfg.Host)
	writeKV(&b, "port", strconv.Itoa(int(cfg.Port)))
	writeKV(&b, "dbname", cfg.Database)
	writeKV(&b, "user", cfg.Username)
	writeKV(&b, "password", cfg.Password)

	if cfg.SSLEnabled {
		writeKV(&b, "sslmode", "require")
		if cfg.SSLCertPath != "" {
			writeKV(&b, "sslcert", cfg.SSLCertPath)
		}
		if cfg.SSLKeyPath != "" {
			writeKV(&b, "sslkey", cfg.SSLKeyPath)
		}
		if cfg.SSLCAPath != "" {
			writeKV(&b, "sslrootcert", cfg.SSLCAPath)
		}
	} else {
		writeKV(&b, "sslmode", "disable")
	}

	if cfg.TimeoutSeconds > 0 {
		writeKV(&b, "connect_timeout", strconv.Itoa(int(cfg.TimeoutSeconds)))
	}

	return strings.TrimSpace(b.String())
}

func writeKV(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s='%s' ", key, strings.ReplaceAll(value, "'", `\'`))
}

// escapeLiteral escapes s for safe inclusion as a single-quoted PostgreSQL string literal by
// doubling embedded quotes, the standard_conforming_strings-compatible approach.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
