package tracker

import (
	"strings"

	"github.com/tordrt/hasuratrack/internal/hasura"
)

// Selection narrows the discovered tables. Entries match either the bare
// table name or schema.name. The zero value selects every table.
type Selection struct {
	Include []string
	Exclude []string
}

// Active reports whether the selection filters anything
func (s Selection) Active() bool {
	return len(nameSet(s.Include)) > 0 || len(nameSet(s.Exclude)) > 0
}

// Apply keeps tables matching Include (all when empty) and drops those
// matching Exclude, preserving discovery order.
func (s Selection) Apply(tables []hasura.TableInfo) []hasura.TableInfo {
	includeSet := nameSet(s.Include)
	excludeSet := nameSet(s.Exclude)

	filtered := make([]hasura.TableInfo, 0, len(tables))
	for _, table := range tables {
		if len(includeSet) > 0 && !matches(includeSet, table) {
			continue
		}
		if matches(excludeSet, table) {
			continue
		}
		filtered = append(filtered, table)
	}
	return filtered
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = true
		}
	}
	return set
}

func matches(set map[string]bool, table hasura.TableInfo) bool {
	return set[table.TableName] || set[table.QualifiedName()]
}
