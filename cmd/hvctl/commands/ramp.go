package commands

import (
	"context"
	"fmt"

	"hvctl/pkg/hv"
	"hvctl/pkg/ramp"
)

// RunRampTo ramps the selection to voltage and waits for convergence,
// printing one progress line per poll.
func RunRampTo(ctx context.Context, env Env, sel Selection, voltage float32, opts RampOptions) error {
	t, err := target(sel, voltage, opts)
	if err != nil {
		return err
	}

	return env.session(func(s *hv.Session) error {
		if err := ramp.NewController(s, env.reporter(), env.Logger).RampTo(ctx, t); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "OK ramp-to reached.")
		return nil
	})
}

// RunRampDown ramps the selection to 0 V and switches it off once settled.
func RunRampDown(ctx context.Context, env Env, sel Selection, opts RampOptions) error {
	t, err := target(sel, 0, opts)
	if err != nil {
		return err
	}

	return env.session(func(s *hv.Session) error {
		if err := ramp.NewController(s, env.reporter(), env.Logger).RampDownAndOff(ctx, t); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "OK ramp-down & OFF.")
		return nil
	})
}

func target(sel Selection, voltage float32, opts RampOptions) (ramp.Target, error) {
	chs, err := sel.resolve()
	if err != nil {
		return ramp.Target{}, err
	}

	t := ramp.Target{
		Slot:      sel.Slot,
		Channels:  chs,
		Voltage:   voltage,
		Tolerance: opts.Tolerance,
		Timeout:   opts.Timeout,
		Poll:      opts.Poll,
	}
	return t, t.Validate()
}
