package strcase

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSnake(t *testing.T) {
	tests := []struct{ in, out string }{
		{"", ""},
		{"ID", "id"},
		{"Name", "name"},
		{"ConnectionID", "connection_id"},
		{"latestAvailableMigration", "latest_available_migration"},
		{"HTTPServer", "http_server"},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			require.Equal(t, test.out, Snake(test.in))
		})
	}
}

func TestScreamingSnake(t *testing.T) {
	tests := []struct{ in, out string }{
		{"error", "ERROR"},
		{"queryDuration", "QUERY_DURATION"},
		{"engineTag", "ENGINE_TAG"},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			require.Equal(t, test.out, ScreamingSnake(test.in))
		})
	}
}
