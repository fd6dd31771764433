package models

import "strings"

// Species is the pet species reported by the cloud backend, resolved once
// when the roster is fetched instead of re-matched as a string per update.
type Species int

const (
	SpeciesOther Species = iota
	SpeciesCat
	SpeciesDog
)

// ParseSpecies maps the backend's free-form species string to an enum value.
func ParseSpecies(s string) Species {
	switch strings.ToLower(s) {
	case "cat":
		return SpeciesCat
	case "dog":
		return SpeciesDog
	default:
		return SpeciesOther
	}
}

func (s Species) String() string {
	switch s {
	case SpeciesCat:
		return "cat"
	case SpeciesDog:
		return "dog"
	default:
		return "other"
	}
}

// MarshalJSON renders the species as its lowercase name.
func (s Species) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Pet is a roster entry, resolved once at startup.
type Pet struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Species Species `json:"species"`
}
