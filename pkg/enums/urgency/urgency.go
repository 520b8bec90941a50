package urgency

import "strings"

// Level tiers an occupied table by how long its oldest open order has waited.
type Level struct {
	Name string
	Rank int
}

func (l Level) Code() string {
	return l.Name
}

func (l Level) Label() string {
	if len(l.Name) == 0 {
		return ""
	}
	return strings.ToUpper(l.Name[:1]) + l.Name[1:]
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.Name), nil
}

// AtLeast reports whether l is as urgent as other.
func (l Level) AtLeast(other Level) bool {
	return l.Rank >= other.Rank
}

type Enum struct {
	None    Level
	Normal  Level
	Warning Level
	Danger  Level
}

var Levels = Enum{
	None:    Level{Name: "none", Rank: 0},
	Normal:  Level{Name: "normal", Rank: 1},
	Warning: Level{Name: "warning", Rank: 2},
	Danger:  Level{Name: "danger", Rank: 3},
}

var All = []Level{
	Levels.None,
	Levels.Normal,
	Levels.Warning,
	Levels.Danger,
}

// ByName returns the level for a given name, or nil if not found
func ByName(name string) *Level {
	for _, l := range All {
		if l.Name == name {
			return &l
		}
	}
	return nil
}
