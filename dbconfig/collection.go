package dbconfig

import "github.com/pkg/errors"

// Collection is a named set of DatabaseConfig entries, as loaded from the "databases" section
// of the owning daemon's configuration.
type Collection map[string]*DatabaseConfig

// Validate checks every entry in the collection and additionally rejects configurations this
// module's queue manager could never run: an empty name, or a name that differs only by case
// from another entry (the two would collide as the same queue's designator in log output).
func (c Collection) Validate() error {
	seen := make(map[string]string, len(c))

	for name, cfg := range c {
		if name == "" {
			return errors.New("database configuration entry has an empty name")
		}

		if cfg == nil {
			return errors.Errorf("database configuration %q is nil", name)
		}

		if err := cfg.Validate(); err != nil {
			return errors.Wrapf(err, "database configuration %q is invalid", name)
		}

		key := normalizeName(name)
		if other, dup := seen[key]; dup {
			return errors.Errorf("database configuration %q collides with %q", name, other)
		}
		seen[key] = name
	}

	return nil
}

func normalizeName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
