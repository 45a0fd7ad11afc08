package hv

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the wire representation of a channel parameter.
type Kind int

const (
	Float32 Kind = iota
	UInt16
)

func (k Kind) String() string {
	switch k {
	case Float32:
		return "float"
	case UInt16:
		return "ushort"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Param is an entry of the parameter registry.
type Param struct {
	Name string
	Kind Kind
}

// Channel parameter names used by the ramp controller and read command.
const (
	VMon   = "VMon"
	IMon   = "IMon"
	V0Set  = "V0Set"
	I0Set  = "I0Set"
	RUp    = "RUp"
	RDWn   = "RDWn"
	SVMax  = "SVMax"
	Pw     = "Pw"
	PDwn   = "PDwn"
	Status = "Status"
)

// params is keyed by lower-case name.
var params = func() map[string]Param {
	m := make(map[string]Param)
	for _, name := range []string{VMon, IMon, V0Set, I0Set, RUp, RDWn, SVMax} {
		m[strings.ToLower(name)] = Param{Name: name, Kind: Float32}
	}
	for _, name := range []string{Pw, PDwn, Status} {
		m[strings.ToLower(name)] = Param{Name: name, Kind: UInt16}
	}
	return m
}()

// LookupParam resolves a parameter name ignoring case and returns its
// canonical spelling and kind.
func LookupParam(name string) (Param, error) {
	p, ok := params[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Param{}, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return p, nil
}

// Params returns the registry sorted by kind, then name.
func Params() []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
