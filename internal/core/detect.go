package core

// Row is one input record keyed by column name.
type Row map[string]string

// ColumnNames returns the row's keys. Order is unspecified.
func (r Row) ColumnNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// IsEmpty reports whether every value in the row is the empty string.
func (r Row) IsEmpty() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

// DetectVariant returns the registered variant whose required columns are
// all present in columns, preferring the one with the most columns.
// Column order is irrelevant.
func DetectVariant(columns []string) (RowVariant, bool) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var (
		detected     RowVariant
		detectedSize int
	)
	for _, spec := range Variants() {
		if len(spec.Columns) <= detectedSize || !containsAll(present, spec.Columns) {
			continue
		}
		detected = spec.Variant
		detectedSize = len(spec.Columns)
	}
	return detected, detectedSize > 0
}

func containsAll(present map[string]struct{}, required []string) bool {
	for _, c := range required {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}
