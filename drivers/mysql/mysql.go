// Package mysql implements the MySQL driver adapter (spec §4.3) on top of
// github.com/go-sql-driver/mysql and sqlcommon's shared operation contracts.
package mysql

import (
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/drivers/sqlcommon"
	"github.com/hydrogend/dbcore/engine"
	"strconv"
	"time"
)

// SQLDriverName is the name this backend registers itself under in database/sql.
const SQLDriverName = "mysql"

// NewVTable builds the engine.VTable for the MySQL backend.
func NewVTable() *engine.VTable {
	return sqlcommon.Adapter{
		EngineType:    engine.MySQL,
		SQLDriverName: SQLDriverName,
		BuildDSN:      buildDSN,
		EscapeLiteral: escapeLiteral,
	}.Build()
}

// buildDSN renders cfg as a go-sql-driver/mysql DSN, using mysql.Config.FormatDSN rather than
// hand-formatting the string so any driver-specific quoting rules stay correct as that library
// evolves.
func buildDSN(cfg *connstring.ConnectionConfig) string {
	c := gomysql.NewConfig()
	c.Net = "tcp"
	c.Addr = cfg.Host
	if cfg.Port != 0 {
		c.Addr += ":" + strconv.Itoa(int(cfg.Port))
	}
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.DBName = cfg.Database
	c.ParseTime = true

	if cfg.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	if cfg.SSLEnabled {
		// A client-cert/custom-CA TLS config must be registered by name via
		// mysql.RegisterTLSConfig before it can be referenced here; this module leaves that
		// registration to the caller and requests opportunistic TLS in the meantime.
		c.TLSConfig = "preferred"
	}

	return c.FormatDSN()
}

func escapeLiteral(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '\\', 0:
			b = append(b, '\\', s[i])
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		default:
			b = append(b, s[i])
		}
	}
	return string(b)
}
