// Package dbconfig defines the external, loaded-by-reference configuration record for a single
// configured database and a named collection of them, generalized from the teacher's two-engine
// (mysql/pgsql) Config to this module's four engines.
package dbconfig

import (
	"github.com/hydrogend/dbcore/config"
	"github.com/hydrogend/dbcore/engine"
	"github.com/pkg/errors"
)

// DatabaseConfig defines one configured database's connection and pool options.
type DatabaseConfig struct {
	Type     string     `yaml:"type" env:"TYPE" default:"mysql"`
	Host     string     `yaml:"host" env:"HOST"`
	Port     int        `yaml:"port" env:"PORT"`
	Database string     `yaml:"database" env:"DATABASE"`
	User     string     `yaml:"user" env:"USER"`
	Password string     `yaml:"password" env:"PASSWORD,unset"` // #nosec G117 -- exported password field
	Tls      config.TLS `yaml:",inline"`
	Options  Options    `yaml:"options" envPrefix:"OPTIONS_"`

	// AutoMigration enables the forward migration loop at lead-queue bootstrap.
	AutoMigration bool `yaml:"auto_migration" env:"AUTO_MIGRATION" default:"true"`
}

// Options holds pool and cache tuning knobs for one database.
type Options struct {
	MaxConnections             int `yaml:"max_connections" env:"MAX_CONNECTIONS" default:"16"`
	MaxConnectionsPerTable     int `yaml:"max_connections_per_table" env:"MAX_CONNECTIONS_PER_TABLE" default:"8"`
	MaxPlaceholdersPerStatement int `yaml:"max_placeholders_per_statement" env:"MAX_PLACEHOLDERS_PER_STATEMENT" default:"8191"`
	MaxRowsPerTransaction      int `yaml:"max_rows_per_transaction" env:"MAX_ROWS_PER_TRANSACTION" default:"8192"`
	PreparedStatementCacheSize int `yaml:"prepared_statement_cache_size" env:"PREPARED_STATEMENT_CACHE_SIZE" default:"64"`
}

// Validate checks constraints on c and returns an error if any are violated.
func (c *DatabaseConfig) Validate() error {
	if c.engineType() == engine.Unknown {
		return unknownDbType(c.Type)
	}

	if c.Host == "" {
		return errors.New("database host missing")
	}

	if c.User == "" && c.engineType() != engine.SQLite {
		return errors.New("database user missing")
	}

	if c.Database == "" {
		return errors.New("database name missing")
	}

	return nil
}

// engineType maps the configured Type string to an engine.EngineType, returning engine.Unknown
// for anything not recognized.
func (c *DatabaseConfig) engineType() engine.EngineType {
	switch c.Type {
	case "mysql":
		return engine.MySQL
	case "pgsql", "postgres", "postgresql":
		return engine.PostgreSQL
	case "sqlite":
		return engine.SQLite
	case "db2":
		return engine.DB2
	default:
		return engine.Unknown
	}
}

// EngineType exposes the resolved engine.EngineType for this configuration.
func (c *DatabaseConfig) EngineType() engine.EngineType {
	return c.engineType()
}

func unknownDbType(t string) error {
	return errors.Errorf(`unknown database type %q, must be one of: "mysql", "pgsql", "sqlite", "db2"`, t)
}
