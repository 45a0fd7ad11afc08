package commands

import (
	"errors"
	"fmt"
	"math"

	"hvctl/pkg/hv"
	"hvctl/pkg/ramp"
)

// RunCheck opens and closes a session and reports the outcome on Out.
func RunCheck(env Env) error {
	err := env.session(func(*hv.Session) error { return nil })
	if err == nil {
		fmt.Fprintln(env.Out, "CHECK OK")
		return nil
	}

	var ce *hv.ConnectError
	if errors.As(err, &ce) && ce.Err == nil {
		fmt.Fprintf(env.Out, "CHECK FAIL: rc=%d\n", int(ce.Code))
	} else {
		fmt.Fprintln(env.Out, "CHECK FAIL")
	}
	return err
}

// RunRead prints pw, vmon and imon for every selected channel as CSV.
func RunRead(env Env, sel Selection) error {
	chs, err := sel.resolve()
	if err != nil {
		return err
	}

	return env.session(func(s *hv.Session) error {
		vmon, err := s.GetFloat(sel.Slot, hv.VMon, chs)
		if err != nil {
			return err
		}
		imon, err := s.GetFloat(sel.Slot, hv.IMon, chs)
		if err != nil {
			return err
		}
		pw, err := s.GetUint(sel.Slot, hv.Pw, chs)
		if err != nil {
			return err
		}

		fmt.Fprintln(env.Out, "slot,ch,pw,vmon,imon")
		for i, ch := range chs {
			fmt.Fprintf(env.Out, "%d,%d,%d,%s,%s\n",
				sel.Slot, ch, pw[i], ramp.FormatFloat(vmon[i]), ramp.FormatFloat(imon[i]))
		}
		return nil
	})
}

// RunPower switches output on or off.
func RunPower(env Env, sel Selection, on bool) error {
	chs, err := sel.resolve()
	if err != nil {
		return err
	}

	var pw uint16
	if on {
		pw = 1
	}
	return env.session(func(s *hv.Session) error {
		if err := s.SetUint(sel.Slot, hv.Pw, chs, hv.Fill(pw, len(chs))); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Power=%d OK\n", pw)
		return nil
	})
}

// RunSetV sets the voltage setpoint without waiting for VMon.
func RunSetV(env Env, sel Selection, voltage float32) error {
	return setFloat(env, sel, hv.V0Set, voltage)
}

// RunSetI sets the current limit.
func RunSetI(env Env, sel Selection, imax float32) error {
	return setFloat(env, sel, hv.I0Set, imax)
}

// RunSetRamp sets the ramp-up and ramp-down rates in two batched calls.
func RunSetRamp(env Env, sel Selection, rup, rdn float32) error {
	chs, err := sel.resolve()
	if err != nil {
		return err
	}
	if err := checkFinite("rup", rup); err != nil {
		return err
	}
	if err := checkFinite("rdn", rdn); err != nil {
		return err
	}

	return env.session(func(s *hv.Session) error {
		if err := s.SetFloat(sel.Slot, hv.RUp, chs, hv.Fill(rup, len(chs))); err != nil {
			return err
		}
		if err := s.SetFloat(sel.Slot, hv.RDWn, chs, hv.Fill(rdn, len(chs))); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "Ramp OK")
		return nil
	})
}

func setFloat(env Env, sel Selection, param string, v float32) error {
	chs, err := sel.resolve()
	if err != nil {
		return err
	}
	if err := checkFinite(param, v); err != nil {
		return err
	}

	return env.session(func(s *hv.Session) error {
		if err := s.SetFloat(sel.Slot, param, chs, hv.Fill(v, len(chs))); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "%s=%s OK\n", param, ramp.FormatFloat(v))
		return nil
	})
}

func checkFinite(name string, v float32) error {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return fmt.Errorf("%w: %s must be a finite number", hv.ErrInvalidArgument, name)
	}
	return nil
}
