package importer

import "strings"

// Profile renames the columns of a known import source to the canonical
// column names the row mapper reads.
type Profile struct {
	Name    string              // Derived from filename (without .yml extension)
	Columns map[string][]string `yaml:"columns"` // canonical column -> source aliases

	aliases map[string]string
}

// Canonical returns the canonical name for a source column, or the column
// itself when the profile has no alias for it. Matching ignores case.
func (p *Profile) Canonical(column string) string {
	if canonical, ok := p.aliases[strings.ToLower(column)]; ok {
		return canonical
	}
	return column
}

func (p *Profile) buildAliases() {
	p.aliases = make(map[string]string)
	for canonical, aliases := range p.Columns {
		for _, alias := range aliases {
			p.aliases[strings.ToLower(strings.TrimSpace(alias))] = canonical
		}
	}
}
