// Package parts maps anatomical mesh names baked into the body model to
// dashboard part ids and media search queries.
package parts

import "sort"

// Entry is the registry record for one named part.
type Entry struct {
	ID    int
	Query string
}

// registry must stay in sync with the mesh names in the body asset.
// A name missing here still highlights but never dispatches.
var registry = map[string]Entry{
	"Head":            {ID: 1, Query: "편두통+후두하근"},
	"Neck_Shoulder_B": {ID: 2, Query: "어깨통증+회전근개"},
	"Neck_Shoulder_F": {ID: 3, Query: "둥근어깨+쇄골통증"},
	"Arms":            {ID: 4, Query: "테니스엘보+골프엘보+손목터널증후군"},
	"Chest_B":         {ID: 5, Query: "척추측만증+강직성척추염+추간판탈출증"},
	"Chest_F":         {ID: 6, Query: "코어운동"},
	"Pelvic":          {ID: 7, Query: "궁둥구멍증후군"},
	"Legs_F":          {ID: 8, Query: "대퇴근통증"},
	"Legs_B":          {ID: 9, Query: "햄스트링통증"},
	"Calf":            {ID: 10, Query: "발목통증+종아리신경병증+족저근막염"},
}

// Lookup returns the registry entry for a mesh name.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// Names returns all registered part names ordered by id.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return registry[names[i]].ID < registry[names[j]].ID
	})
	return names
}

// Missing reports which registered names are absent from a loaded asset's
// mesh names, so a mismatched asset can be flagged at load time.
func Missing(meshNames []string) []string {
	present := make(map[string]struct{}, len(meshNames))
	for _, n := range meshNames {
		present[n] = struct{}{}
	}
	var missing []string
	for _, name := range Names() {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
