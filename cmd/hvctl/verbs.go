package main

import (
	"fmt"
	"math"
	"time"

	"hvctl/cmd/hvctl/commands"
	"hvctl/pkg/hv"
	"hvctl/pkg/ramp"

	cli "github.com/urfave/cli/v2"
)

func selectionFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.UintFlag{
			Name:     "slot",
			Aliases:  []string{"s"},
			Usage:    "Board slot in the crate",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "channels",
			Aliases:  []string{"ch"},
			Usage:    "Channels, comma list and ranges (0,1,4-7)",
			Required: true,
		},
	}, extra...)
}

func rampFlags(extra ...cli.Flag) []cli.Flag {
	return selectionFlags(append(extra,
		&cli.Float64Flag{
			Name:  "tol",
			Usage: "Tolerance in volts",
			Value: ramp.DefaultTolerance,
		},
		&cli.Int64Flag{
			Name:  "timeout-ms",
			Usage: "Give up after this many milliseconds",
			Value: ramp.DefaultTimeout.Milliseconds(),
		},
		&cli.Int64Flag{
			Name:  "poll-ms",
			Usage: "Milliseconds between VMon polls",
			Value: ramp.DefaultPoll.Milliseconds(),
		},
	)...)
}

func floatFlag(name, usage string) cli.Flag {
	return &cli.Float64Flag{Name: name, Usage: usage, Required: true}
}

func slotArg(c *cli.Context) (uint16, error) {
	slot := c.Uint("slot")
	if slot > math.MaxUint16 {
		return 0, fmt.Errorf("%w: slot %d out of range", hv.ErrInvalidArgument, slot)
	}
	return uint16(slot), nil
}

func selection(c *cli.Context) (commands.Selection, error) {
	slot, err := slotArg(c)
	if err != nil {
		return commands.Selection{}, err
	}
	return commands.Selection{Slot: slot, Channels: c.String("channels")}, nil
}

func rampOptions(c *cli.Context) commands.RampOptions {
	return commands.RampOptions{
		Tolerance: float32(c.Float64("tol")),
		Timeout:   time.Duration(c.Int64("timeout-ms")) * time.Millisecond,
		Poll:      time.Duration(c.Int64("poll-ms")) * time.Millisecond,
	}
}

// onSelection adapts a verb that works on a slot/channel selection.
func onSelection(fn func(c *cli.Context, env commands.Env, sel commands.Selection) error) cli.ActionFunc {
	return withEnv(func(c *cli.Context, env commands.Env) error {
		sel, err := selection(c)
		if err != nil {
			return err
		}
		return fn(c, env, sel)
	})
}

func commandList() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "check",
			Usage:  "Connect to the crate and disconnect again",
			Action: withEnv(func(c *cli.Context, env commands.Env) error { return commands.RunCheck(env) }),
		},
		{
			Name:  "read",
			Usage: "Print pw, vmon and imon per channel as CSV",
			Flags: selectionFlags(),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunRead(env, sel)
			}),
		},
		{
			Name:  "on",
			Usage: "Enable output",
			Flags: selectionFlags(),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunPower(env, sel, true)
			}),
		},
		{
			Name:  "off",
			Usage: "Disable output",
			Flags: selectionFlags(),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunPower(env, sel, false)
			}),
		},
		{
			Name:  "set-v",
			Usage: "Set the voltage setpoint (V0Set)",
			Flags: selectionFlags(floatFlag("voltage", "Setpoint in volts")),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunSetV(env, sel, float32(c.Float64("voltage")))
			}),
		},
		{
			Name:  "set-i",
			Usage: "Set the current limit (I0Set)",
			Flags: selectionFlags(floatFlag("imax", "Current limit in uA")),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunSetI(env, sel, float32(c.Float64("imax")))
			}),
		},
		{
			Name:  "set-ramp",
			Usage: "Set ramp-up and ramp-down rates (RUp, RDWn)",
			Flags: selectionFlags(floatFlag("rup", "Ramp-up rate in V/s"), floatFlag("rdn", "Ramp-down rate in V/s")),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunSetRamp(env, sel, float32(c.Float64("rup")), float32(c.Float64("rdn")))
			}),
		},
		{
			Name:  "ramp-to",
			Usage: "Set V0Set, enable output and wait until VMon is within tolerance",
			Flags: rampFlags(floatFlag("voltage", "Target in volts")),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				closeMQTT, err := attachMQTT(c, &env)
				if err != nil {
					return err
				}
				defer closeMQTT()
				return commands.RunRampTo(c.Context, env, sel, float32(c.Float64("voltage")), rampOptions(c))
			}),
		},
		{
			Name:  "ramp-down",
			Usage: "Ramp to 0 V, wait until VMon is within tolerance, then disable output",
			Flags: rampFlags(),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				closeMQTT, err := attachMQTT(c, &env)
				if err != nil {
					return err
				}
				defer closeMQTT()
				return commands.RunRampDown(c.Context, env, sel, rampOptions(c))
			}),
		},
		{
			Name:  "param-get",
			Usage: "Read any channel parameter",
			Flags: selectionFlags(&cli.StringFlag{Name: "param", Usage: "Parameter name", Required: true}),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunParamGet(env, sel, c.String("param"))
			}),
		},
		{
			Name:  "param-set",
			Usage: "Write any channel parameter",
			Flags: selectionFlags(
				&cli.StringFlag{Name: "param", Usage: "Parameter name", Required: true},
				&cli.StringFlag{Name: "value", Usage: "Value, parsed by parameter type", Required: true},
			),
			Action: onSelection(func(c *cli.Context, env commands.Env, sel commands.Selection) error {
				return commands.RunParamSet(env, sel, c.String("param"), c.String("value"))
			}),
		},
		{
			Name:  "apply",
			Usage: "Apply V0Set and I0Set from a channel table (ch name V0Set I0Set)",
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "slot", Aliases: []string{"s"}, Usage: "Board slot in the crate", Required: true},
				&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Channel table", Required: true},
				&cli.StringFlag{Name: "exclude", Usage: "Channels to leave untouched"},
			},
			Action: withEnv(func(c *cli.Context, env commands.Env) error {
				slot, err := slotArg(c)
				if err != nil {
					return err
				}
				return commands.RunApply(env, slot, c.String("file"), c.String("exclude"))
			}),
		},
		{
			Name:  "config",
			Usage: "Show or store the connection profile",
			Subcommands: []*cli.Command{
				{
					Name:   "show",
					Usage:  "Print the profile commands would connect with",
					Action: configShow,
				},
				{
					Name:   "set",
					Usage:  "Store the profile given by --system, --link, --host, --user and --pass",
					Action: configSet,
				},
			},
		},
	}
}
