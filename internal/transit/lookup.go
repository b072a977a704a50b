// Package transit holds the static bus/metro lookup tables. Plain in-process
// data: no network, no storage, just indexed access for the API layer.
package transit

import "strings"

// Route describes one fixed bus or metro line.
type Route struct {
	Name        string   `json:"name"`
	Mode        string   `json:"mode"` // "bus" or "metro"
	Headsign    string   `json:"headsign"`
	Stops       []string `json:"stops"`
	FirstRun    string   `json:"firstRun"`
	LastRun     string   `json:"lastRun"`
	IntervalMin int      `json:"intervalMin"`
}

// Lookup indexes routes by stop name for the API layer.
type Lookup struct {
	routes []Route
	byStop map[string][]int
	byName map[string]int
}

// NewLookup builds the indexes over the given route table.
func NewLookup(routes []Route) *Lookup {
	l := &Lookup{
		routes: routes,
		byStop: make(map[string][]int),
		byName: make(map[string]int),
	}
	for i, r := range routes {
		l.byName[normalize(r.Name)] = i
		for _, stop := range r.Stops {
			k := normalize(stop)
			l.byStop[k] = append(l.byStop[k], i)
		}
	}
	return l
}

// RoutesByStop returns every route serving the given stop. Unknown stops
// yield an empty slice, not an error.
func (l *Lookup) RoutesByStop(stop string) []Route {
	idx := l.byStop[normalize(stop)]
	out := make([]Route, 0, len(idx))
	for _, i := range idx {
		out = append(out, l.routes[i])
	}
	return out
}

// RouteByName returns the route with the given name, if any.
func (l *Lookup) RouteByName(name string) (Route, bool) {
	i, ok := l.byName[normalize(name)]
	if !ok {
		return Route{}, false
	}
	return l.routes[i], true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultRoutes is the bundled route table.
func DefaultRoutes() []Route {
	return []Route{
		{
			Name:        "R27",
			Mode:        "bus",
			Headsign:    "Main Station - Harbor Park",
			Stops:       []string{"Main Station", "City Hall", "Cultural Center", "Harbor Park"},
			FirstRun:    "05:30",
			LastRun:     "22:40",
			IntervalMin: 12,
		},
		{
			Name:        "B3",
			Mode:        "bus",
			Headsign:    "Night Market - University",
			Stops:       []string{"Night Market", "Old Street", "Temple Gate", "University"},
			FirstRun:    "06:00",
			LastRun:     "23:00",
			IntervalMin: 15,
		},
		{
			Name:        "52",
			Mode:        "bus",
			Headsign:    "Main Station - Lotus Pond",
			Stops:       []string{"Main Station", "North Gate", "Confucius Temple", "Lotus Pond"},
			FirstRun:    "05:50",
			LastRun:     "22:00",
			IntervalMin: 20,
		},
		{
			Name:        "Red Line",
			Mode:        "metro",
			Headsign:    "Airport - Main Station - Arena",
			Stops:       []string{"Airport", "Central Park", "Main Station", "Arena"},
			FirstRun:    "06:00",
			LastRun:     "00:00",
			IntervalMin: 6,
		},
		{
			Name:        "Orange Line",
			Mode:        "metro",
			Headsign:    "Harbor Park - City Hall - East District",
			Stops:       []string{"Harbor Park", "Pier-2", "City Hall", "Cultural Center", "East District"},
			FirstRun:    "06:00",
			LastRun:     "00:00",
			IntervalMin: 8,
		},
	}
}
