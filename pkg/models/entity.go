package models

import (
	"fmt"
	"strings"
)

// Entity names a migratable legacy table. The values double as summary keys,
// metric labels and artifact names.
type Entity string

const (
	EntityExecutions Entity = "executions"
	EntityGranules   Entity = "granules"
	EntityPdrs       Entity = "pdrs"
)

// Entities lists every entity in foreign-key order.
var Entities = []Entity{EntityExecutions, EntityGranules, EntityPdrs}

func ParseEntity(s string) (Entity, error) {
	entity := Entity(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range Entities {
		if e == entity {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q", s)
}

// OrderEntities de-duplicates selected and returns it in foreign-key order.
func OrderEntities(selected []Entity) []Entity {
	want := map[Entity]bool{}
	for _, e := range selected {
		want[e] = true
	}
	ordered := make([]Entity, 0, len(want))
	for _, e := range Entities {
		if want[e] {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

const collectionIDSeparator = "___"

// BuildCollectionID renders the legacy collection key.
func BuildCollectionID(name, version string) string {
	return name + collectionIDSeparator + version
}

// ParseCollectionID splits a legacy "name___version" collection key.
func ParseCollectionID(collectionID string) (string, string, error) {
	i := strings.LastIndex(collectionID, collectionIDSeparator)
	if i <= 0 || i+len(collectionIDSeparator) >= len(collectionID) {
		return "", "", fmt.Errorf("malformed collection id %q", collectionID)
	}
	return collectionID[:i], collectionID[i+len(collectionIDSeparator):], nil
}
