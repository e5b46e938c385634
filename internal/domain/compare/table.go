// internal/domain/compare/table.go
package compare

// Row is one specification across every compared product
type Row struct {
	Name    string   `json:"name"`
	Values  []string `json:"values"`
	Uniform bool     `json:"uniform"`
}

// Table is the side by side view of the compared products
type Table struct {
	Products []Entry `json:"products"`
	Rows     []Row   `json:"rows"`
}

// BuildTable unions the specification names in first seen order and fills
// the gaps with placeholder. A row is uniform when all its values match.
func BuildTable(entries []Entry, placeholder string) Table {
	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		for _, spec := range e.Specifications {
			if !seen[spec.Name] {
				seen[spec.Name] = true
				names = append(names, spec.Name)
			}
		}
	}

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		row := Row{Name: name, Values: make([]string, 0, len(entries)), Uniform: true}
		for _, e := range entries {
			v, ok := e.Specifications.Get(name)
			if !ok {
				v = placeholder
			}
			if len(row.Values) > 0 && row.Values[0] != v {
				row.Uniform = false
			}
			row.Values = append(row.Values, v)
		}
		rows = append(rows, row)
	}

	return Table{Products: entries, Rows: rows}
}
