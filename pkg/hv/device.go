// Package hv describes a CAEN-style high-voltage crate as seen through its
// vendor wrapper library: connection handles, batched channel parameter
// access, status codes and the scoped session every command runs in.
package hv

// Handle identifies a live connection returned by Port.Connect.
type Handle int

// Port is the boundary to the vendor library. Implementations translate
// typed vectors to whatever buffers the library expects. Failures reported
// by the library are returned as a Code so callers can ask for LastError.
type Port interface {
	Connect(cfg ConnConfig) (Handle, error)
	Disconnect(h Handle) error

	GetFloat(h Handle, slot uint16, param string, channels []uint16) ([]float32, error)
	GetUint(h Handle, slot uint16, param string, channels []uint16) ([]uint16, error)
	SetFloat(h Handle, slot uint16, param string, channels []uint16, values []float32) error
	SetUint(h Handle, slot uint16, param string, channels []uint16, values []uint16) error

	// LastError returns the library's text for the most recent failure on h.
	LastError(h Handle) string
}

// ConnConfig holds everything needed to open a connection to a crate.
type ConnConfig struct {
	System   SystemType `json:"system"`
	Link     LinkType   `json:"link"`
	Host     string     `json:"host"`
	Username string     `json:"username"`
	Password string     `json:"password"`
}

// DefaultConnConfig is the fixed SY4527 @ 192.168.0.1 admin/admin target.
var DefaultConnConfig = ConnConfig{
	System:   SY4527,
	Link:     LinkTCPIP,
	Host:     "192.168.0.1",
	Username: "admin",
	Password: "admin",
}
