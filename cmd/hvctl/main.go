package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdout).RunContext(ctx, os.Args)
	stop()

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// newApp builds the CLI. Command results go to stdout; usage, help and
// errors go to stderr.
func newApp(stdout io.Writer) *cli.App {
	app := &cli.App{
		Name:                 "hvctl",
		Usage:                "CAEN HV crate controller",
		Description:          description(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				Value:   false,
			},
			&cli.BoolFlag{
				Name:  "simulate",
				Usage: "Talk to a simulated crate kept in the database instead of hardware",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Database holding the connection profile and simulator state",
				Value: "hvctl.db",
			},
			&cli.StringFlag{
				Name:  "system",
				Usage: "Crate system type (SY4527, SY5527, N1470, ...)",
			},
			&cli.StringFlag{
				Name:  "link",
				Usage: "Link type (tcpip, usb, optlink, ...)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Crate address passed to the wrapper (IP for tcpip)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Crate user name",
			},
			&cli.StringFlag{
				Name:  "pass",
				Usage: "Crate password",
			},
			&cli.StringFlag{
				Name:  "mqtt-broker",
				Usage: "Publish ramp progress to this broker, e.g. tcp://localhost:1883",
			},
			&cli.StringFlag{
				Name:  "mqtt-user",
				Usage: "MQTT user name",
			},
			&cli.StringFlag{
				Name:  "mqtt-pass",
				Usage: "MQTT password",
			},
			&cli.StringFlag{
				Name:  "mqtt-topic",
				Usage: "Root topic for ramp progress",
				Value: "hvctl",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		CommandNotFound: func(c *cli.Context, name string) {
			log.Fatalf("Error: unknown command: %s", name)
		},
		Commands:  commandList(),
		Writer:    os.Stderr,
		ErrWriter: os.Stderr,
		Metadata:  map[string]any{resultsKey: stdout},
	}
	return app
}
