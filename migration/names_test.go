package migration

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestExtractMigrationName_Payload(t *testing.T) {
	name, fromPayload := ExtractMigrationName("PAYLOAD:testmigration")
	require.Equal(t, "testmigration", name)
	require.True(t, fromPayload)
}

func TestExtractMigrationName_PayloadEmptySuffix(t *testing.T) {
	name, fromPayload := ExtractMigrationName("PAYLOAD:")
	require.Equal(t, "", name)
	require.True(t, fromPayload)
}

func TestExtractMigrationName_Path(t *testing.T) {
	name, fromPayload := ExtractMigrationName("/path/to/migrations/")
	require.Equal(t, "migrations", name)
	require.False(t, fromPayload)
}

func TestExtractMigrationName_RootSlash(t *testing.T) {
	name, _ := ExtractMigrationName("/")
	require.Equal(t, "/", name)
}

func TestExtractMigrationName_Empty(t *testing.T) {
	name, _ := ExtractMigrationName("")
	require.Equal(t, ".", name)
}

func TestNormalizeEngineName(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOk bool
	}{
		{"postgres", "postgresql", true},
		{"postgresql", "postgresql", true},
		{"PostgreSQL", "postgresql", true},
		{"mysql", "mysql", true},
		{"sqlite", "sqlite", true},
		{"db2", "db2", true},
		{"oracle", "", false},
		{"", "", false},
	}

	for _, test := range tests {
		got, ok := NormalizeEngineName(test.input)
		require.Equal(t, test.wantOk, ok, test.input)
		require.Equal(t, test.want, got, test.input)
	}
}
