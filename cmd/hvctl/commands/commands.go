// Package commands implements the hvctl verbs. Every verb resolves and
// validates its input first, then runs inside exactly one device session.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"hvctl/pkg/hv"
	"hvctl/pkg/ramp"

	log "github.com/sirupsen/logrus"
)

// Env carries what every verb needs.
type Env struct {
	Port   hv.Port
	Conn   hv.ConnConfig
	Logger log.FieldLogger
	Out    io.Writer

	// Progress receives ramp samples in addition to the text lines on Out.
	Progress []ramp.Reporter
}

func (e Env) session(body func(s *hv.Session) error) error {
	return hv.WithSession(e.Port, e.Conn, e.Logger, body)
}

func (e Env) reporter() ramp.Reporter {
	return append(ramp.Reporters{ramp.NewTextReporter(e.Out)}, e.Progress...)
}

// Selection addresses a set of channels in one slot.
type Selection struct {
	Slot     uint16
	Channels string // channel spec, e.g. "0,2,4-7"
}

func (s Selection) resolve() ([]uint16, error) {
	return hv.ParseChannels(s.Channels)
}

// RampOptions are the convergence settings shared by ramp-to and ramp-down.
type RampOptions struct {
	Tolerance float32
	Timeout   time.Duration
	Poll      time.Duration
}

var DefaultRampOptions = RampOptions{
	Tolerance: ramp.DefaultTolerance,
	Timeout:   ramp.DefaultTimeout,
	Poll:      ramp.DefaultPoll,
}

func joinFloats(vs []float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = ramp.FormatFloat(v)
	}
	return strings.Join(parts, ",")
}

func joinUints(vs []uint16) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
