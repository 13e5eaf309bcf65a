package models

import (
	"strings"
)

// StopSearchResult is a stop returned by a location search
type StopSearchResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Locality string `json:"locality,omitempty"`
}

// DisplayName returns "Name, Locality" unless the name already carries the locality
func (s StopSearchResult) DisplayName() string {
	if s.Locality == "" || strings.Contains(s.Name, s.Locality) {
		return s.Name
	}
	return s.Name + ", " + s.Locality
}

// StationConfig is the stop the sign shows departures for
type StationConfig struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Configured reports whether a stop id is set
func (s StationConfig) Configured() bool {
	return s.ID != ""
}

// LineConfig is a line the operator pinned for the dashboard
type LineConfig struct {
	Name      string `json:"name"`
	Direction string `json:"dir"`
}

// StationNameOnly strips the locality prefix ("Zürich, Bucheggplatz" -> "Bucheggplatz")
func StationNameOnly(full string) string {
	idx := strings.LastIndex(full, ",")
	if idx < 0 {
		return strings.TrimSpace(full)
	}
	name := strings.TrimSpace(full[idx+1:])
	if name == "" {
		return strings.TrimSpace(full[:idx])
	}
	return name
}

var asciiReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss",
	"é", "e", "è", "e", "ê", "e", "à", "a", "â", "a", "ç", "c",
	"É", "E", "È", "E", "À", "A",
	"′", "'",
)

// ToASCII transliterates umlauts and common accents for fonts without those glyphs.
// Remaining non-ASCII runes are replaced by '?'.
func ToASCII(s string) string {
	s = asciiReplacer.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > 0x7e {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
