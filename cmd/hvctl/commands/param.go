package commands

import (
	"fmt"
	"strconv"
	"strings"

	"hvctl/pkg/hv"
	"hvctl/pkg/ramp"
)

// RunParamGet reads any registered parameter, choosing the wire type from
// the registry: Name=[v0,v1,...].
func RunParamGet(env Env, sel Selection, name string) error {
	p, err := hv.LookupParam(name)
	if err != nil {
		return err
	}
	chs, err := sel.resolve()
	if err != nil {
		return err
	}

	return env.session(func(s *hv.Session) error {
		var out string
		switch p.Kind {
		case hv.Float32:
			vs, err := s.GetFloat(sel.Slot, p.Name, chs)
			if err != nil {
				return err
			}
			out = joinFloats(vs)
		case hv.UInt16:
			vs, err := s.GetUint(sel.Slot, p.Name, chs)
			if err != nil {
				return err
			}
			out = joinUints(vs)
		}
		fmt.Fprintf(env.Out, "%s=[%s]\n", p.Name, out)
		return nil
	})
}

// RunParamSet writes value to any registered parameter on every selected
// channel. The value is parsed according to the parameter's kind before
// the session opens.
func RunParamSet(env Env, sel Selection, name, value string) error {
	p, err := hv.LookupParam(name)
	if err != nil {
		return err
	}
	chs, err := sel.resolve()
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)

	switch p.Kind {
	case hv.Float32:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("%w: invalid float: %q", hv.ErrInvalidArgument, value)
		}
		v := float32(f)
		if err := checkFinite(p.Name, v); err != nil {
			return err
		}
		return env.session(func(s *hv.Session) error {
			if err := s.SetFloat(sel.Slot, p.Name, chs, hv.Fill(v, len(chs))); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%s=%s OK\n", p.Name, ramp.FormatFloat(v))
			return nil
		})

	default:
		u, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return fmt.Errorf("%w: invalid ushort: %q", hv.ErrInvalidArgument, value)
		}
		v := uint16(u)
		return env.session(func(s *hv.Session) error {
			if err := s.SetUint(sel.Slot, p.Name, chs, hv.Fill(v, len(chs))); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%s=%d OK\n", p.Name, v)
			return nil
		})
	}
}
