/*
Package caen exposes the CAEN HV Wrapper library as an hv.Port.

Build with -tags caenhv on a host where libcaenhvwrapper and
CAENHVWrapper.h are installed. Without the tag the package compiles to a
Port whose Connect always fails with ErrUnavailable.
*/
package caen

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

// ErrUnavailable is returned by Connect when hvctl was built without the
// wrapper library.
var ErrUnavailable = errors.New("CAEN HV wrapper not available in this build (rebuild with -tags caenhv)")

var errNoChannels = errors.New("caen: no channels")

// Port talks to a crate through the vendor library.
type Port struct {
	logger log.FieldLogger
}

func New(logger log.FieldLogger) *Port {
	return &Port{logger: logger.WithField("component", "caen")}
}

// setEach issues one library call when every channel gets the same value,
// since CAENHV_SetChParam applies a single value to the whole channel list.
// Otherwise it falls back to one call per channel and stops at the first error.
func setEach[T comparable](channels []uint16, values []T, set func(chs []uint16, v *T) error) error {
	uniform := true
	for _, v := range values[1:] {
		if v != values[0] {
			uniform = false
			break
		}
	}
	if uniform {
		return set(channels, &values[0])
	}
	for i := range channels {
		if err := set(channels[i:i+1], &values[i]); err != nil {
			return err
		}
	}
	return nil
}
