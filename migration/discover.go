package migration

import (
	"github.com/pkg/errors"
	"os"
	"regexp"
)

// discoverNameRe matches "<stem>_<slot>.lua" where slot is 1-6 characters, none of them "." or
// "/". The slot is documented by the spec as accepting non-numeric characters despite being
// called a "digit slot" — this is preserved here unchanged (see DESIGN.md Open Questions);
// callers should not rely on slot contents being numeric.
func discoverNameRe(stem string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `_([^./]{1,6})\.lua$`)
}

// DiscoverPathMigrationFiles enumerates dir for files matching "<stem>_<slot>.lua" (slot 1-6
// characters, any non-"."/"/" byte) and returns their basenames. It succeeds (possibly with a
// nil/empty slice) even when nothing matches; it only returns an error if dir itself can't be
// read.
func DiscoverPathMigrationFiles(dir, stem string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read migration directory %q", dir)
	}

	re := discoverNameRe(stem)

	// Matches the spec's "initial capacity 10, doubling growth" array discipline with Go's
	// native slice growth, which already doubles on overflow.
	matches := make([]string, 0, 10)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if re.MatchString(entry.Name()) {
			matches = append(matches, entry.Name())
		}
	}

	return matches, nil
}
