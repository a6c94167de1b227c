package migration

import (
	"path"
	"strings"
)

// PayloadPrefix marks a migration reference as an embedded payload name rather than a
// filesystem path.
const PayloadPrefix = "PAYLOAD:"

// ExtractMigrationName derives a migration's cache name from its reference. A reference
// beginning with "PAYLOAD:" yields its suffix verbatim (which may be empty) and reports
// fromPayload=true. Any other reference is treated as a filesystem path and yields its
// basename, with the usual path.Base conventions: "/" stays "/"; "" becomes "."; a trailing
// slash is stripped first.
func ExtractMigrationName(ref string) (name string, fromPayload bool) {
	if strings.HasPrefix(ref, PayloadPrefix) {
		return strings.TrimPrefix(ref, PayloadPrefix), true
	}

	return path.Base(ref), false
}

// knownEngines maps every accepted spelling to its canonical lowercase tag.
var knownEngines = map[string]string{
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"mysql":      "mysql",
	"sqlite":     "sqlite",
	"db2":        "db2",
}

// NormalizeEngineName returns the canonical lowercase tag for input ("postgres" aliases to
// "postgresql"), or ("", false) if input names no known engine.
func NormalizeEngineName(input string) (string, bool) {
	canonical, ok := knownEngines[strings.ToLower(strings.TrimSpace(input))]
	return canonical, ok
}
