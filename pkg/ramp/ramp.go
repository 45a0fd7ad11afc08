// Package ramp drives HV channels to a voltage and waits for the monitored
// voltage of every channel to settle within tolerance.
package ramp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"hvctl/pkg/hv"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultTolerance = 5
	DefaultTimeout   = 600000 * time.Millisecond
	DefaultPoll      = 500 * time.Millisecond
)

var (
	ErrSetpointFailed = errors.New("setpoint failed")
	ErrEnableFailed   = errors.New("enable failed")
	ErrDisableFailed  = errors.New("disable failed")
	ErrReadFailed     = errors.New("read failed")
	ErrTimeout        = errors.New("ramp timeout")
)

// Device is the part of hv.Session the controller needs.
type Device interface {
	GetFloat(slot uint16, param string, channels []uint16) ([]float32, error)
	SetFloat(slot uint16, param string, channels []uint16, values []float32) error
	SetUint(slot uint16, param string, channels []uint16, values []uint16) error
}

// Target describes one ramp invocation.
type Target struct {
	Slot      uint16
	Channels  []uint16
	Voltage   float32 // ignored by RampDownAndOff
	Tolerance float32
	Timeout   time.Duration
	Poll      time.Duration
}

// Validate rejects targets the poll loop cannot run with.
func (t Target) Validate() error {
	switch {
	case len(t.Channels) == 0:
		return fmt.Errorf("%w: no channels", hv.ErrInvalidArgument)
	case math.IsNaN(float64(t.Voltage)) || math.IsInf(float64(t.Voltage), 0):
		return fmt.Errorf("%w: voltage must be finite", hv.ErrInvalidArgument)
	case !(t.Tolerance >= 0):
		return fmt.Errorf("%w: tolerance must be >= 0", hv.ErrInvalidArgument)
	case t.Timeout < 0:
		return fmt.Errorf("%w: timeout must be >= 0", hv.ErrInvalidArgument)
	case t.Poll <= 0:
		return fmt.Errorf("%w: poll interval must be > 0", hv.ErrInvalidArgument)
	}
	return nil
}

// Controller runs the ramp state machines against a single device.
// It is not safe for concurrent use; one ramp runs at a time.
type Controller struct {
	dev      Device
	reporter Reporter
	logger   log.FieldLogger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewController(dev Device, reporter Reporter, logger log.FieldLogger) *Controller {
	return &Controller{
		dev:      dev,
		reporter: reporter,
		logger:   logger.WithField("component", "ramp"),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// RampTo applies the setpoint, enables output and polls VMon until every
// channel is within tolerance of the target or the timeout elapses.
// Nothing is rolled back on failure: a setpoint applied before a failed
// enable stays applied, and a timed out ramp leaves output enabled.
func (c *Controller) RampTo(ctx context.Context, t Target) error {
	n := len(t.Channels)

	if err := c.dev.SetFloat(t.Slot, hv.V0Set, t.Channels, hv.Fill(t.Voltage, n)); err != nil {
		return fmt.Errorf("%w: %w", ErrSetpointFailed, err)
	}
	if err := c.dev.SetUint(t.Slot, hv.Pw, t.Channels, hv.Fill[uint16](1, n)); err != nil {
		return fmt.Errorf("%w: %w", ErrEnableFailed, err)
	}
	c.logger.Debugf("Slot %d: output enabled, ramping %d channel(s) to %gV", t.Slot, n, t.Voltage)

	return c.waitConverged(ctx, t, t.Voltage)
}

// RampDownAndOff sets the setpoint to zero, waits for every channel to
// fall within tolerance of zero and only then disables output. If the wait
// fails the channels are left enabled.
func (c *Controller) RampDownAndOff(ctx context.Context, t Target) error {
	n := len(t.Channels)

	if err := c.dev.SetFloat(t.Slot, hv.V0Set, t.Channels, hv.Fill[float32](0, n)); err != nil {
		return fmt.Errorf("%w: %w", ErrSetpointFailed, err)
	}
	if err := c.waitConverged(ctx, t, 0); err != nil {
		return err
	}
	if err := c.dev.SetUint(t.Slot, hv.Pw, t.Channels, hv.Fill[uint16](0, n)); err != nil {
		return fmt.Errorf("%w: %w", ErrDisableFailed, err)
	}
	c.logger.Debugf("Slot %d: output disabled on %d channel(s)", t.Slot, n)
	return nil
}

// waitConverged polls VMon on all channels in one batched call per poll.
// One in-tolerance sample is enough; there is no hysteresis.
func (c *Controller) waitConverged(ctx context.Context, t Target, target float32) error {
	deadline := c.now().Add(t.Timeout)

	for poll := 1; ; poll++ {
		vmon, err := c.dev.GetFloat(t.Slot, hv.VMon, t.Channels)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		now := c.now()
		converged := Converged(vmon, target, t.Tolerance)
		c.reporter.Report(Sample{
			Time:      now,
			Slot:      t.Slot,
			Channels:  t.Channels,
			VMon:      vmon,
			Target:    target,
			Tolerance: t.Tolerance,
			Converged: converged,
			Poll:      poll,
		})

		if converged {
			c.logger.Debugf("Slot %d: converged to %gV after %d poll(s)", t.Slot, target, poll)
			return nil
		}
		if !now.Before(deadline) {
			return fmt.Errorf("%w after %s (%d polls): VMon=[%s] target=%g tol=%g",
				ErrTimeout, t.Timeout, poll, formatVector(vmon), target, t.Tolerance)
		}
		if err := c.sleep(ctx, t.Poll); err != nil {
			return err
		}
	}
}

// Converged reports whether every value is within tol of target (inclusive).
func Converged(values []float32, target, tol float32) bool {
	for _, v := range values {
		if math.Abs(float64(v)-float64(target)) > float64(tol) {
			return false
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
