// Package mocks provides testify mocks for the hv interfaces.
package mocks

import (
	"hvctl/pkg/hv"

	"github.com/stretchr/testify/mock"
)

// Port is a mock of hv.Port.
type Port struct {
	mock.Mock
}

// NewPort creates a Port mock whose expectations are asserted at test cleanup.
func NewPort(t interface {
	mock.TestingT
	Cleanup(func())
}) *Port {
	m := &Port{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Port) Connect(cfg hv.ConnConfig) (hv.Handle, error) {
	args := m.Called(cfg)
	return args.Get(0).(hv.Handle), args.Error(1)
}

func (m *Port) Disconnect(h hv.Handle) error {
	args := m.Called(h)
	return args.Error(0)
}

func (m *Port) GetFloat(h hv.Handle, slot uint16, param string, channels []uint16) ([]float32, error) {
	args := m.Called(h, slot, param, channels)
	values, _ := args.Get(0).([]float32)
	return values, args.Error(1)
}

func (m *Port) GetUint(h hv.Handle, slot uint16, param string, channels []uint16) ([]uint16, error) {
	args := m.Called(h, slot, param, channels)
	values, _ := args.Get(0).([]uint16)
	return values, args.Error(1)
}

func (m *Port) SetFloat(h hv.Handle, slot uint16, param string, channels []uint16, values []float32) error {
	args := m.Called(h, slot, param, channels, values)
	return args.Error(0)
}

func (m *Port) SetUint(h hv.Handle, slot uint16, param string, channels []uint16, values []uint16) error {
	args := m.Called(h, slot, param, channels, values)
	return args.Error(0)
}

func (m *Port) LastError(h hv.Handle) string {
	args := m.Called(h)
	return args.String(0)
}
