package audio

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FocusKind identifies which kind of exclusive audio focus the session holds.
type FocusKind int

const (
	FocusNone FocusKind = iota
	FocusRing
	FocusVoice
)

func (k FocusKind) String() string {
	switch k {
	case FocusNone:
		return "none"
	case FocusRing:
		return "ring"
	case FocusVoice:
		return "voice"
	default:
		return fmt.Sprintf("focus(%d)", int(k))
	}
}

func (k FocusKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Held reports whether the kind represents held focus.
func (k FocusKind) Held() bool { return k == FocusRing || k == FocusVoice }

// Mode is the audio-processing profile requested from the driver.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRingtone
	ModeInCall
	ModeInCommunication
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRingtone:
		return "ringtone"
	case ModeInCall:
		return "in_call"
	case ModeInCommunication:
		return "in_communication"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Route is a single physical output/input device. Values are bit flags so
// they can be combined into a RouteMask.
type Route int

const (
	RouteEarpiece     Route = 1 << 0
	RouteBluetooth    Route = 1 << 1
	RouteWiredHeadset Route = 1 << 2
	RouteSpeaker      Route = 1 << 3
)

var routeNames = []struct {
	route Route
	name  string
}{
	{RouteEarpiece, "earpiece"},
	{RouteBluetooth, "bluetooth"},
	{RouteWiredHeadset, "wired_headset"},
	{RouteSpeaker, "speaker"},
}

func (r Route) String() string {
	for _, n := range routeNames {
		if n.route == r {
			return n.name
		}
	}
	return fmt.Sprintf("route(%d)", int(r))
}

// MarshalText encodes the route by name for JSON and YAML surfaces.
func (r Route) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a route name.
func (r *Route) UnmarshalText(b []byte) error {
	v, err := ParseRoute(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRoute maps a route name (as produced by Route.String) back to a Route.
func ParseRoute(s string) (Route, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range routeNames {
		if n.name == s {
			return n.route, nil
		}
	}
	return 0, fmt.Errorf("audio: unknown route %q", s)
}

// RouteMask is a set of routes. Masks held by the route coordinator always
// contain RouteSpeaker.
type RouteMask int

// MaskOf builds a mask from the given routes. Speaker is always included.
func MaskOf(routes ...Route) RouteMask {
	m := RouteMask(RouteSpeaker)
	for _, r := range routes {
		m |= RouteMask(r)
	}
	return m
}

func (m RouteMask) Has(r Route) bool { return m&RouteMask(r) != 0 }

func (m RouteMask) With(r Route) RouteMask { return m | RouteMask(r) }

// Without removes r from the mask. Speaker cannot be removed.
func (m RouteMask) Without(r Route) RouteMask {
	if r == RouteSpeaker {
		return m
	}
	return m &^ RouteMask(r)
}

// Routes lists the routes in the mask in a stable order.
func (m RouteMask) Routes() []Route {
	out := make([]Route, 0, len(routeNames))
	for _, n := range routeNames {
		if m.Has(n.route) {
			out = append(out, n.route)
		}
	}
	return out
}

func (m RouteMask) String() string {
	routes := m.Routes()
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// MarshalJSON encodes the mask as a list of route names.
func (m RouteMask) MarshalJSON() ([]byte, error) {
	routes := m.Routes()
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range routes {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q", r.String())
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts a list of route names. Speaker is always added.
func (m *RouteMask) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("audio: route mask: %w", err)
	}
	out := MaskOf()
	for _, n := range names {
		r, err := ParseRoute(n)
		if err != nil {
			return err
		}
		out = out.With(r)
	}
	*m = out
	return nil
}

// CallAudioState is the externally visible audio state of the session.
// It is a value type; equality is field equality.
type CallAudioState struct {
	Muted     bool      `json:"muted"`
	Route     Route     `json:"route"`
	Available RouteMask `json:"available"`
}

func (s CallAudioState) Equal(o CallAudioState) bool { return s == o }

func (s CallAudioState) String() string {
	return fmt.Sprintf("[muted=%t route=%s available=%s]", s.Muted, s.Route, s.Available)
}
