package dbconfig

import (
	"github.com/hydrogend/dbcore/engine"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDatabaseConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatabaseConfig
		wantErr bool
	}{
		{"valid mysql", DatabaseConfig{Type: "mysql", Host: "h", User: "u", Database: "d"}, false},
		{"valid sqlite without user", DatabaseConfig{Type: "sqlite", Host: "h", Database: "d"}, false},
		{"unknown type", DatabaseConfig{Type: "mssql", Host: "h", User: "u", Database: "d"}, true},
		{"missing host", DatabaseConfig{Type: "mysql", User: "u", Database: "d"}, true},
		{"missing user for non-sqlite", DatabaseConfig{Type: "pgsql", Host: "h", Database: "d"}, true},
		{"missing database", DatabaseConfig{Type: "mysql", Host: "h", User: "u"}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_EngineType(t *testing.T) {
	require.Equal(t, engine.MySQL, (&DatabaseConfig{Type: "mysql"}).EngineType())
	require.Equal(t, engine.PostgreSQL, (&DatabaseConfig{Type: "pgsql"}).EngineType())
	require.Equal(t, engine.PostgreSQL, (&DatabaseConfig{Type: "postgresql"}).EngineType())
	require.Equal(t, engine.SQLite, (&DatabaseConfig{Type: "sqlite"}).EngineType())
	require.Equal(t, engine.DB2, (&DatabaseConfig{Type: "db2"}).EngineType())
	require.Equal(t, engine.Unknown, (&DatabaseConfig{Type: "oracle"}).EngineType())
}

func TestCollection_Validate(t *testing.T) {
	valid := Collection{
		"primary": {Type: "mysql", Host: "h", User: "u", Database: "d"},
		"reports": {Type: "sqlite", Host: "h", Database: "r.db"},
	}
	require.NoError(t, valid.Validate())
}

func TestCollection_ValidateRejectsCaseInsensitiveDuplicate(t *testing.T) {
	dup := Collection{
		"primary": {Type: "mysql", Host: "h", User: "u", Database: "d"},
		"Primary": {Type: "mysql", Host: "h", User: "u", Database: "d"},
	}
	require.Error(t, dup.Validate())
}

func TestCollection_ValidateRejectsEmptyName(t *testing.T) {
	c := Collection{"": {Type: "mysql", Host: "h", User: "u", Database: "d"}}
	require.Error(t, c.Validate())
}

func TestCollection_ValidatePropagatesEntryError(t *testing.T) {
	c := Collection{"bad": {Type: "oracle"}}
	require.Error(t, c.Validate())
}

func TestCollection_ValidateEmptyCollection(t *testing.T) {
	require.NoError(t, Collection{}.Validate())
}
