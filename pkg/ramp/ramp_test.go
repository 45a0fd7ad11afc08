package ramp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"hvctl/pkg/hv"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice replays scripted VMon readings and records every call.
type fakeDevice struct {
	vmon [][]float32 // one entry per poll; the last one repeats

	failSet map[string]error // keyed by "V0Set", "Pw=1", "Pw=0"
	failGet error
	failAt  int // poll number at which failGet is returned, 1-based

	calls []string
	polls int
	pw    []uint16
}

func (d *fakeDevice) GetFloat(slot uint16, param string, channels []uint16) ([]float32, error) {
	d.polls++
	d.calls = append(d.calls, "get "+param)
	if d.failGet != nil && d.polls >= d.failAt {
		return nil, d.failGet
	}
	i := d.polls - 1
	if i >= len(d.vmon) {
		i = len(d.vmon) - 1
	}
	return append([]float32(nil), d.vmon[i]...), nil
}

func (d *fakeDevice) SetFloat(slot uint16, param string, channels []uint16, values []float32) error {
	d.calls = append(d.calls, fmt.Sprintf("set %s=%g", param, values[0]))
	if len(values) != len(channels) {
		return fmt.Errorf("values/channels mismatch")
	}
	return d.failSet[param]
}

func (d *fakeDevice) SetUint(slot uint16, param string, channels []uint16, values []uint16) error {
	key := fmt.Sprintf("%s=%d", param, values[0])
	d.calls = append(d.calls, "set "+key)
	if err := d.failSet[key]; err != nil {
		return err
	}
	d.pw = values
	return nil
}

// fakeClock advances only when the controller sleeps.
type fakeClock struct {
	t      time.Time
	sleeps int
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps++
	c.t = c.t.Add(d)
	return nil
}

type recorder struct {
	samples []Sample
}

func (r *recorder) Report(s Sample) { r.samples = append(r.samples, s) }

func newTestController(dev Device) (*Controller, *fakeClock, *recorder) {
	logger := log.New()
	logger.SetOutput(io.Discard)

	rec := &recorder{}
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	c := NewController(dev, rec, logger)
	c.now = clock.now
	c.sleep = clock.sleep
	return c, clock, rec
}

func target(v float32) Target {
	return Target{
		Slot:      1,
		Channels:  []uint16{0, 1, 2},
		Voltage:   v,
		Tolerance: DefaultTolerance,
		Timeout:   time.Second,
		Poll:      100 * time.Millisecond,
	}
}

func deviceError(op, param string) error {
	return &hv.DeviceError{Op: op, Param: param, Code: 3, Text: "Read error"}
}

func TestRampToConvergesOnFirstPoll(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{{499, 500, 503}}}
	c, clock, rec := newTestController(dev)

	err := c.RampTo(context.Background(), target(500))
	require.NoError(t, err)

	assert.Equal(t, []string{"set V0Set=500", "set Pw=1", "get VMon"}, dev.calls)
	assert.Equal(t, 0, clock.sleeps)
	require.Len(t, rec.samples, 1)
	assert.True(t, rec.samples[0].Converged)
	assert.Equal(t, float32(500), rec.samples[0].Target)
	assert.Equal(t, 1, rec.samples[0].Poll)
}

func TestRampToConvergesAfterSeveralPolls(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{
		{0, 0, 0},
		{250, 240, 260},
		{496, 500, 494}, // one channel still out
		{496, 500, 495},
	}}
	c, clock, rec := newTestController(dev)

	require.NoError(t, c.RampTo(context.Background(), target(500)))
	assert.Equal(t, 4, dev.polls)
	assert.Equal(t, 3, clock.sleeps)
	require.Len(t, rec.samples, 4)
	for i, s := range rec.samples[:3] {
		assert.False(t, s.Converged, "poll %d", i+1)
	}
	assert.True(t, rec.samples[3].Converged)
}

func TestRampToToleranceIsInclusive(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{{105, 95, 100}}}
	c, _, _ := newTestController(dev)

	require.NoError(t, c.RampTo(context.Background(), target(100)))
	assert.Equal(t, 1, dev.polls)
}

func TestRampToTimeout(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{{0, 0, 0}}}
	c, clock, rec := newTestController(dev)
	tgt := target(500)

	err := c.RampTo(context.Background(), tgt)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, hv.ErrDeviceCall)

	expected := int(tgt.Timeout / tgt.Poll)
	assert.InDelta(t, expected, dev.polls, 1)
	assert.Equal(t, dev.polls-1, clock.sleeps)
	assert.Len(t, rec.samples, dev.polls)

	// Output stays enabled after a timeout.
	assert.Equal(t, []uint16{1, 1, 1}, dev.pw)
	assert.NotContains(t, dev.calls, "set Pw=0")
}

func TestRampToZeroTimeoutPollsOnce(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{{0, 0, 0}}}
	c, clock, _ := newTestController(dev)
	tgt := target(500)
	tgt.Timeout = 0

	assert.ErrorIs(t, c.RampTo(context.Background(), tgt), ErrTimeout)
	assert.Equal(t, 1, dev.polls)
	assert.Equal(t, 0, clock.sleeps)
}

func TestRampToSetpointFailure(t *testing.T) {
	dev := &fakeDevice{
		vmon:    [][]float32{{0, 0, 0}},
		failSet: map[string]error{hv.V0Set: deviceError("set", hv.V0Set)},
	}
	c, _, rec := newTestController(dev)

	err := c.RampTo(context.Background(), target(500))
	assert.ErrorIs(t, err, ErrSetpointFailed)
	assert.ErrorIs(t, err, hv.ErrDeviceCall)
	assert.Contains(t, err.Error(), "set V0Set failed rc=3 (0x3) : Read error")
	assert.Equal(t, []string{"set V0Set=500"}, dev.calls)
	assert.Empty(t, rec.samples)
}

func TestRampToEnableFailure(t *testing.T) {
	dev := &fakeDevice{
		vmon:    [][]float32{{0, 0, 0}},
		failSet: map[string]error{"Pw=1": deviceError("set", hv.Pw)},
	}
	c, _, _ := newTestController(dev)

	err := c.RampTo(context.Background(), target(500))
	assert.ErrorIs(t, err, ErrEnableFailed)
	assert.NotErrorIs(t, err, ErrSetpointFailed)
	// The setpoint stays applied.
	assert.Equal(t, []string{"set V0Set=500", "set Pw=1"}, dev.calls)
	assert.Equal(t, 0, dev.polls)
}

func TestRampToReadFailureAbortsLoop(t *testing.T) {
	dev := &fakeDevice{
		vmon:    [][]float32{{0, 0, 0}},
		failGet: deviceError("get", hv.VMon),
		failAt:  3,
	}
	c, clock, rec := newTestController(dev)

	err := c.RampTo(context.Background(), target(500))
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.ErrorIs(t, err, hv.ErrDeviceCall)
	assert.Equal(t, 3, dev.polls)
	assert.Equal(t, 2, clock.sleeps)
	assert.Len(t, rec.samples, 2)
}

func TestRampDownAndOff(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{
		{500, 500, 500},
		{120, 80, 100},
		{3, 0.5, 4.9},
	}}
	c, clock, rec := newTestController(dev)

	require.NoError(t, c.RampDownAndOff(context.Background(), target(123)))
	assert.Equal(t, []string{
		"set V0Set=0",
		"get VMon", "get VMon", "get VMon",
		"set Pw=0",
	}, dev.calls)
	assert.Equal(t, 2, clock.sleeps)
	assert.Equal(t, []uint16{0, 0, 0}, dev.pw)
	for _, s := range rec.samples {
		assert.Equal(t, float32(0), s.Target)
	}
}

func TestRampDownAndOffTimeoutLeavesOutputEnabled(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{{500, 10, 0}}}
	c, _, _ := newTestController(dev)

	err := c.RampDownAndOff(context.Background(), target(0))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotContains(t, dev.calls, "set Pw=0")
	assert.Nil(t, dev.pw)
}

func TestRampDownAndOffReadFailure(t *testing.T) {
	dev := &fakeDevice{
		vmon:    [][]float32{{500, 500, 500}},
		failGet: deviceError("get", hv.VMon),
		failAt:  1,
	}
	c, _, _ := newTestController(dev)

	err := c.RampDownAndOff(context.Background(), target(0))
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.Equal(t, []string{"set V0Set=0", "get VMon"}, dev.calls)
}

func TestRampDownAndOffSetpointFailure(t *testing.T) {
	dev := &fakeDevice{
		vmon:    [][]float32{{0, 0, 0}},
		failSet: map[string]error{hv.V0Set: deviceError("set", hv.V0Set)},
	}
	c, _, _ := newTestController(dev)

	err := c.RampDownAndOff(context.Background(), target(0))
	assert.ErrorIs(t, err, ErrSetpointFailed)
	assert.Equal(t, []string{"set V0Set=0"}, dev.calls)
}

func TestRampDownAndOffDisableFailure(t *testing.T) {
	dev := &fakeDevice{
		vmon:    [][]float32{{0, 0, 0}},
		failSet: map[string]error{"Pw=0": deviceError("set", hv.Pw)},
	}
	c, _, _ := newTestController(dev)

	err := c.RampDownAndOff(context.Background(), target(0))
	assert.ErrorIs(t, err, ErrDisableFailed)
	assert.ErrorIs(t, err, hv.ErrDeviceCall)
	assert.Equal(t, 1, countCalls(dev.calls, "set Pw=0"))
}

func TestRampCancelledDuringSleep(t *testing.T) {
	dev := &fakeDevice{vmon: [][]float32{{500, 500, 500}}}
	c, _, _ := newTestController(dev)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RampDownAndOff(ctx, target(0))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, dev.polls)
	assert.NotContains(t, dev.calls, "set Pw=0")
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestConverged(t *testing.T) {
	assert.True(t, Converged([]float32{95, 105}, 100, 5))
	assert.False(t, Converged([]float32{95, 105.5}, 100, 5))
	assert.True(t, Converged([]float32{100}, 100, 0))
	assert.False(t, Converged([]float32{-6}, 0, 5))
	assert.True(t, Converged(nil, 100, 5))
}

func TestTargetValidate(t *testing.T) {
	assert.NoError(t, target(500).Validate())

	bad := target(500)
	bad.Channels = nil
	assert.ErrorIs(t, bad.Validate(), hv.ErrInvalidArgument)

	bad = target(500)
	bad.Tolerance = -1
	assert.ErrorIs(t, bad.Validate(), hv.ErrInvalidArgument)

	bad = target(500)
	bad.Poll = 0
	assert.ErrorIs(t, bad.Validate(), hv.ErrInvalidArgument)

	bad = target(500)
	bad.Timeout = -time.Second
	assert.ErrorIs(t, bad.Validate(), hv.ErrInvalidArgument)
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)
	r.Report(Sample{
		Time:      time.Date(2026, 10, 18, 14, 3, 7, 0, time.Local),
		VMon:      []float32{499.2, 500.1},
		Target:    500,
		Tolerance: 5,
	})
	assert.Equal(t, "14:03:07 VMon=[499.20, 500.10] target=500 tol=±5\n", buf.String())
}

func TestReportersFanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Reporters{a, b}.Report(Sample{Poll: 1})
	assert.Len(t, a.samples, 1)
	assert.Len(t, b.samples, 1)
}

func countCalls(calls []string, call string) int {
	n := 0
	for _, c := range calls {
		if c == call {
			n++
		}
	}
	return n
}
