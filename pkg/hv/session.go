package hv

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Session is a connected handle on a Port. It exists only inside the body
// passed to WithSession and must not be retained after the body returns.
type Session struct {
	port   Port
	handle Handle
	logger log.FieldLogger
}

// WithSession connects, runs body with the connected session and always
// disconnects afterwards, whether body succeeded, failed or panicked.
// A connect failure is returned as a *ConnectError and body is never run.
// Disconnect failures are logged and never replace body's result.
func WithSession(port Port, cfg ConnConfig, logger log.FieldLogger, body func(s *Session) error) error {
	logger = logger.WithField("component", "session")

	h, err := port.Connect(cfg)
	if err != nil {
		return newConnectError(port, h, cfg, err)
	}
	logger.Debugf("Connected to %s at %s (handle %d)", cfg.System, cfg.Host, h)

	s := &Session{port: port, handle: h, logger: logger}
	defer s.close()

	return body(s)
}

func newConnectError(port Port, h Handle, cfg ConnConfig, err error) error {
	var code Code
	if errors.As(err, &code) {
		return &ConnectError{Config: cfg, Code: code, Text: port.LastError(h)}
	}
	return &ConnectError{Config: cfg, Err: err}
}

func (s *Session) close() {
	if err := s.port.Disconnect(s.handle); err != nil {
		s.logger.Warnf("Disconnect failed: %v", err)
		return
	}
	s.logger.Debugf("Disconnected (handle %d)", s.handle)
}

// Handle returns the connection handle of the session.
func (s *Session) Handle() Handle {
	return s.handle
}

// GetFloat reads a Float32 parameter from every channel in one batched call.
// A reply with a different number of values than channels is a *DeviceError.
func (s *Session) GetFloat(slot uint16, param string, channels []uint16) ([]float32, error) {
	s.logger.Debugf("get %s slot=%d channels=%v", param, slot, channels)
	values, err := s.port.GetFloat(s.handle, slot, param, channels)
	if err != nil {
		return nil, s.deviceError("get", param, err)
	}
	if err := checkCount(param, values, channels); err != nil {
		return nil, err
	}
	return values, nil
}

// GetUint reads a UInt16 parameter from every channel in one batched call.
func (s *Session) GetUint(slot uint16, param string, channels []uint16) ([]uint16, error) {
	s.logger.Debugf("get %s slot=%d channels=%v", param, slot, channels)
	values, err := s.port.GetUint(s.handle, slot, param, channels)
	if err != nil {
		return nil, s.deviceError("get", param, err)
	}
	if err := checkCount(param, values, channels); err != nil {
		return nil, err
	}
	return values, nil
}

// SetFloat writes one Float32 value per channel in one batched call.
func (s *Session) SetFloat(slot uint16, param string, channels []uint16, values []float32) error {
	s.logger.Debugf("set %s=%v slot=%d channels=%v", param, values, slot, channels)
	if err := s.port.SetFloat(s.handle, slot, param, channels, values); err != nil {
		return s.deviceError("set", param, err)
	}
	return nil
}

// SetUint writes one UInt16 value per channel in one batched call.
func (s *Session) SetUint(slot uint16, param string, channels []uint16, values []uint16) error {
	s.logger.Debugf("set %s=%v slot=%d channels=%v", param, values, slot, channels)
	if err := s.port.SetUint(s.handle, slot, param, channels, values); err != nil {
		return s.deviceError("set", param, err)
	}
	return nil
}

// checkCount rejects a read that did not return exactly one value per
// channel.
func checkCount[T any](param string, values []T, channels []uint16) error {
	if len(values) == len(channels) {
		return nil
	}
	return &DeviceError{
		Op:    "get",
		Param: param,
		Text:  fmt.Sprintf("%d value(s) for %d channel(s)", len(values), len(channels)),
	}
}

func (s *Session) deviceError(op, param string, err error) error {
	var code Code
	if !errors.As(err, &code) {
		return &DeviceError{Op: op, Param: param, Text: err.Error()}
	}
	return &DeviceError{Op: op, Param: param, Code: code, Text: s.port.LastError(s.handle)}
}

// Fill returns n copies of v, the shape batched calls expect when every
// channel gets the same value.
func Fill[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}
