package migration

// PayloadFile is one named binary blob delivered alongside the owning daemon's binary,
// addressable by name — the external payload-extraction subsystem's interface into this module.
type PayloadFile struct {
	Name string
	Data []byte
}

// PayloadTable is the set of payload files available to the migration engine, indexed by name.
// A nil or empty PayloadTable is valid; any lookup against it simply fails.
type PayloadTable []PayloadFile

// Lookup finds the payload file named name. It fails (ok=false) for an empty table, an empty
// name, or no match — matching execute_single_migration_load_only_with_state's "empty/absent
// payload tables also fail for any non-empty script request" contract.
func (t PayloadTable) Lookup(name string) (PayloadFile, bool) {
	if name == "" {
		return PayloadFile{}, false
	}

	for _, f := range t {
		if f.Name == name {
			return f, true
		}
	}

	return PayloadFile{}, false
}
