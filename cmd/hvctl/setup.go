package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"hvctl/cmd/hvctl/commands"
	"hvctl/pkg/drivers/caen"
	"hvctl/pkg/drivers/crate_simulator"
	"hvctl/pkg/hv"
	"hvctl/pkg/ramp"
	"hvctl/templates"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	bolt "go.etcd.io/bbolt"
)

const resultsKey = "results"

// results is where a verb prints its output.
func results(c *cli.Context) io.Writer {
	if w, ok := c.App.Metadata[resultsKey].(io.Writer); ok {
		return w
	}
	return os.Stdout
}

// openDB opens the database at path. Without create a missing file is
// not an error and yields a nil db.
func openDB(path string, create bool) (*bolt.DB, error) {
	if !create {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

// resolveConn builds the connection profile: flags first, then the stored
// profile when there is a database, then the built-in defaults.
func resolveConn(c *cli.Context, db *bolt.DB) (hv.ConnConfig, error) {
	cfg := hv.DefaultConnConfig

	if db != nil {
		store, err := hv.NewStore(db)
		if err != nil {
			return cfg, fmt.Errorf("failed to create store: %w", err)
		}
		if cfg, err = store.GetConnConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read connection profile: %w", err)
		}
	}

	if c.IsSet("system") {
		s, err := hv.ParseSystemType(c.String("system"))
		if err != nil {
			return cfg, err
		}
		cfg.System = s
	}
	if c.IsSet("link") {
		l, err := hv.ParseLinkType(c.String("link"))
		if err != nil {
			return cfg, err
		}
		cfg.Link = l
	}
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("user") {
		cfg.Username = c.String("user")
	}
	if c.IsSet("pass") {
		cfg.Password = c.String("pass")
	}
	return cfg, nil
}

// withEnv opens what a verb needs (database, profile, port) and closes it
// once the verb returns.
func withEnv(fn func(c *cli.Context, env commands.Env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		logger := log.StandardLogger()

		db, err := openDB(c.String("db"), c.Bool("simulate"))
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		conn, err := resolveConn(c, db)
		if err != nil {
			return err
		}

		var port hv.Port
		if c.Bool("simulate") {
			sim, err := crate_simulator.NewCrateSimulator(db, logger.WithField("device", "simulator"))
			if err != nil {
				return fmt.Errorf("failed to create crate simulator: %w", err)
			}
			port = sim
		} else {
			port = caen.New(logger.WithField("device", "caen"))
		}

		return fn(c, commands.Env{
			Port:   port,
			Conn:   conn,
			Logger: logger,
			Out:    results(c),
		})
	}
}

// attachMQTT adds the MQTT progress reporter when a broker is configured.
// The returned func disconnects it.
func attachMQTT(c *cli.Context, env *commands.Env) (func(), error) {
	broker := c.String("mqtt-broker")
	if broker == "" {
		return func() {}, nil
	}

	r, err := ramp.NewMQTTReporter(ramp.MQTTConfig{
		Broker:    broker,
		Username:  c.String("mqtt-user"),
		Password:  c.String("mqtt-pass"),
		TopicRoot: c.String("mqtt-topic"),
	}, env.Logger)
	if err != nil {
		return nil, err
	}
	env.Progress = append(env.Progress, r)
	return r.Close, nil
}

func configShow(c *cli.Context) error {
	db, err := openDB(c.String("db"), false)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	cfg, err := resolveConn(c, db)
	if err != nil {
		return err
	}
	return commands.RunConfigShow(results(c), cfg)
}

func configSet(c *cli.Context) error {
	db, err := openDB(c.String("db"), true)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := resolveConn(c, db)
	if err != nil {
		return err
	}
	store, err := hv.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return commands.RunConfigSet(results(c), store, cfg)
}

type kindGroup struct {
	Kind  string
	Names []string
}

// description renders the help notes from the parameter registry.
func description() string {
	tmpl, err := templates.LoadTemplates()
	if err != nil {
		log.Warnf("Failed to load templates: %v", err)
		return ""
	}

	var groups []kindGroup
	for _, p := range hv.Params() {
		if n := len(groups); n == 0 || groups[n-1].Kind != p.Kind.String() {
			groups = append(groups, kindGroup{Kind: p.Kind.String()})
		}
		groups[len(groups)-1].Names = append(groups[len(groups)-1].Names, p.Name)
	}

	var b strings.Builder
	err = tmpl.ExecuteTemplate(&b, "help.tmpl", map[string]any{
		"Kinds":     groups,
		"Tolerance": ramp.DefaultTolerance,
		"TimeoutMs": ramp.DefaultTimeout.Milliseconds(),
		"PollMs":    ramp.DefaultPoll.Milliseconds(),
	})
	if err != nil {
		log.Warnf("Failed to render help: %v", err)
		return ""
	}
	return b.String()
}
