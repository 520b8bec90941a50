package tablestatus

import (
	"strings"
)

// Status is the occupancy of a table as derived from its open orders.
// It is never stored on the table itself.
type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Name), nil
}

type Enum struct {
	Available Status
	Occupied  Status
}

var Statuses = Enum{
	Available: Status{Name: "available"},
	Occupied:  Status{Name: "occupied"},
}

var All = []Status{
	Statuses.Available,
	Statuses.Occupied,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
