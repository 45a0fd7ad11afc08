/*
Package crate_simulator implements hv.Port for a crate that only exists in
a bbolt file.

Every channel ramps its VMon toward V0Set at RUp (rising) or RDWn
(falling) volts per second while Pw is 1, and back to 0 at RDWn once Pw is
cleared, or at once when PDwn selects kill mode. State is advanced lazily
from the wall clock on every access and written back on every set, so
separate hvctl invocations see the same crate.
*/
package crate_simulator

import (
	"fmt"
	"time"

	"hvctl/pkg/hv"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	deviceName = "Crate Simulator"

	// below this distance from its goal a channel no longer counts as ramping
	rampEpsilon = 0.01

	statusOn       uint16 = 1 << 0
	statusRampUp   uint16 = 1 << 1
	statusRampDown uint16 = 1 << 2
)

// CrateSimulator implements the hv.Port interface
type CrateSimulator struct {
	logger log.FieldLogger
	store  *store
	config CrateConfig
	now    func() time.Time

	// open handles and the last error text recorded for each
	handles map[hv.Handle]string
	next    hv.Handle
}

func NewCrateSimulator(db *bolt.DB, logger log.FieldLogger) (*CrateSimulator, error) {
	store, err := NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating store: %w", err)
	}

	config, err := store.GetCrateConfig()
	if err != nil {
		return nil, fmt.Errorf("error getting crate config: %w", err)
	}

	return &CrateSimulator{
		logger:  logger.WithField("component", "crate_simulator"),
		store:   store,
		config:  config,
		now:     time.Now,
		handles: make(map[hv.Handle]string),
	}, nil
}

func (c *CrateSimulator) Config() CrateConfig {
	return c.config
}

func (c *CrateSimulator) Connect(cfg hv.ConnConfig) (hv.Handle, error) {
	c.next++
	c.handles[c.next] = ""
	c.logger.Debugf("%s connected as %s via %s at %s (handle %d)",
		deviceName, cfg.System, cfg.Link, cfg.Host, c.next)
	return c.next, nil
}

func (c *CrateSimulator) Disconnect(h hv.Handle) error {
	if _, ok := c.handles[h]; !ok {
		return hv.CodeNotPresent
	}
	delete(c.handles, h)
	c.logger.Debugf("%s disconnected (handle %d)", deviceName, h)
	return nil
}

func (c *CrateSimulator) LastError(h hv.Handle) string {
	if text, ok := c.handles[h]; ok {
		return text
	}
	return fmt.Sprintf("handle %d not present", h)
}

func (c *CrateSimulator) GetFloat(h hv.Handle, slot uint16, param string, channels []uint16) ([]float32, error) {
	p, states, err := c.access(h, slot, param, hv.Float32, channels)
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(channels))
	for i, ch := range channels {
		st := &states[ch]
		switch p.Name {
		case hv.VMon:
			out[i] = st.VMon
		case hv.IMon:
			out[i] = min(st.VMon/c.config.LoadMOhm, st.I0Set)
		case hv.V0Set:
			out[i] = st.V0Set
		case hv.I0Set:
			out[i] = st.I0Set
		case hv.RUp:
			out[i] = st.RUp
		case hv.RDWn:
			out[i] = st.RDWn
		case hv.SVMax:
			out[i] = st.SVMax
		}
	}
	return out, nil
}

func (c *CrateSimulator) GetUint(h hv.Handle, slot uint16, param string, channels []uint16) ([]uint16, error) {
	p, states, err := c.access(h, slot, param, hv.UInt16, channels)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, len(channels))
	for i, ch := range channels {
		st := &states[ch]
		switch p.Name {
		case hv.Pw:
			out[i] = st.Pw
		case hv.PDwn:
			out[i] = st.PDwn
		case hv.Status:
			out[i] = status(st)
		}
	}
	return out, nil
}

func (c *CrateSimulator) SetFloat(h hv.Handle, slot uint16, param string, channels []uint16, values []float32) error {
	p, states, err := c.access(h, slot, param, hv.Float32, channels)
	if err != nil {
		return err
	}
	if len(values) != len(channels) {
		return c.fail(h, hv.CodeOutOfRange, "%d values for %d channels", len(values), len(channels))
	}

	// validate the whole batch before touching any channel
	for i, ch := range channels {
		v, st := values[i], &states[ch]
		switch p.Name {
		case hv.VMon, hv.IMon:
			return c.fail(h, hv.CodeSetPropNotImpl, "%s is read only", p.Name)
		case hv.V0Set:
			if v < 0 || v > st.SVMax {
				return c.fail(h, hv.CodeOutOfRange, "ch %d: V0Set %v outside [0, %v]", ch, v, st.SVMax)
			}
		case hv.RUp, hv.RDWn:
			if v <= 0 {
				return c.fail(h, hv.CodeOutOfRange, "ch %d: %s must be positive", ch, p.Name)
			}
		default:
			if v < 0 {
				return c.fail(h, hv.CodeOutOfRange, "ch %d: %s must not be negative", ch, p.Name)
			}
		}
	}

	for i, ch := range channels {
		v, st := values[i], &states[ch]
		switch p.Name {
		case hv.V0Set:
			st.V0Set = v
		case hv.I0Set:
			st.I0Set = v
		case hv.RUp:
			st.RUp = v
		case hv.RDWn:
			st.RDWn = v
		case hv.SVMax:
			st.SVMax = v
			st.V0Set = min(st.V0Set, v)
		}
	}
	c.logger.Debugf("slot %d: %s=%v on %v", slot, p.Name, values, channels)
	return c.save(h, slot, states)
}

func (c *CrateSimulator) SetUint(h hv.Handle, slot uint16, param string, channels []uint16, values []uint16) error {
	p, states, err := c.access(h, slot, param, hv.UInt16, channels)
	if err != nil {
		return err
	}
	if len(values) != len(channels) {
		return c.fail(h, hv.CodeOutOfRange, "%d values for %d channels", len(values), len(channels))
	}
	if p.Name == hv.Status {
		return c.fail(h, hv.CodeSetPropNotImpl, "%s is read only", p.Name)
	}
	for i, v := range values {
		if v > 1 {
			return c.fail(h, hv.CodeOutOfRange, "ch %d: %s must be 0 or 1", channels[i], p.Name)
		}
	}

	for i, ch := range channels {
		switch p.Name {
		case hv.Pw:
			states[ch].Pw = values[i]
		case hv.PDwn:
			states[ch].PDwn = values[i]
		}
	}
	c.logger.Debugf("slot %d: %s=%v on %v", slot, p.Name, values, channels)
	return c.save(h, slot, states)
}

// access validates a call and returns the slot's channel states advanced to now.
func (c *CrateSimulator) access(h hv.Handle, slot uint16, param string, kind hv.Kind, channels []uint16) (hv.Param, []ChannelState, error) {
	if _, ok := c.handles[h]; !ok {
		return hv.Param{}, nil, hv.CodeNotPresent
	}

	p, err := hv.LookupParam(param)
	if err != nil || p.Kind != kind {
		return hv.Param{}, nil, c.fail(h, hv.CodePropNotFound, "no %s parameter %q", kind, param)
	}
	if slot >= c.config.Slots {
		return hv.Param{}, nil, c.fail(h, hv.CodeSlotNotPresent, "slot %d not present", slot)
	}
	for _, ch := range channels {
		if ch >= c.config.Channels {
			return hv.Param{}, nil, c.fail(h, hv.CodeOutOfRange, "channel %d out of range", ch)
		}
	}

	now := c.now()
	states, err := c.store.GetSlot(slot, c.config.Channels, now)
	if err != nil {
		return hv.Param{}, nil, c.fail(h, hv.CodeReadErr, "read slot %d: %v", slot, err)
	}
	for i := range states {
		advance(&states[i], now)
	}
	return p, states, nil
}

func (c *CrateSimulator) save(h hv.Handle, slot uint16, states []ChannelState) error {
	if err := c.store.SetSlot(slot, states); err != nil {
		return c.fail(h, hv.CodeWriteErr, "write slot %d: %v", slot, err)
	}
	return nil
}

func (c *CrateSimulator) fail(h hv.Handle, code hv.Code, format string, args ...any) error {
	c.handles[h] = fmt.Sprintf(format, args...)
	return code
}

// goal returns the voltage a channel is heading for and the rate it moves at.
func goal(st *ChannelState) (target, rate float32) {
	if st.Pw == 0 {
		return 0, st.RDWn
	}
	if st.VMon < st.V0Set {
		return st.V0Set, st.RUp
	}
	return st.V0Set, st.RDWn
}

func advance(st *ChannelState, now time.Time) {
	dt := float32(now.Sub(st.Updated).Seconds())
	st.Updated = now

	if st.Pw == 0 && st.PDwn == 0 {
		st.VMon = 0
		return
	}
	if dt <= 0 {
		return
	}

	target, rate := goal(st)
	if st.VMon < target {
		st.VMon = min(target, st.VMon+rate*dt)
	} else {
		st.VMon = max(target, st.VMon-rate*dt)
	}
}

func status(st *ChannelState) uint16 {
	var s uint16
	if st.Pw == 1 {
		s |= statusOn
	}
	target, _ := goal(st)
	switch {
	case st.VMon < target-rampEpsilon:
		s |= statusRampUp
	case st.VMon > target+rampEpsilon:
		s |= statusRampDown
	}
	return s
}
