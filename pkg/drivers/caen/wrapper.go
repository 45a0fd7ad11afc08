//go:build caenhv

package caen

/*
#cgo CFLAGS: -I/usr/include -I/usr/local/include
#cgo LDFLAGS: -L/usr/lib -L/usr/local/lib -lcaenhvwrapper
#include <stdlib.h>
#include <CAENHVWrapper.h>
*/
import "C"
import (
	"fmt"
	"unsafe"

	"hvctl/pkg/hv"
)

func (p *Port) Connect(cfg hv.ConnConfig) (hv.Handle, error) {
	arg := C.CString(cfg.Host)
	defer C.free(unsafe.Pointer(arg))
	user := C.CString(cfg.Username)
	defer C.free(unsafe.Pointer(user))
	pass := C.CString(cfg.Password)
	defer C.free(unsafe.Pointer(pass))

	var handle C.int
	rc := C.CAENHV_InitSystem(C.CAENHV_SYSTEM_TYPE_t(cfg.System), C.int(cfg.Link),
		unsafe.Pointer(arg), user, pass, &handle)
	p.logger.Debugf("CAENHV_InitSystem(%s, %s, %s) = %d", cfg.System, cfg.Link, cfg.Host, int(rc))
	return hv.Handle(handle), hv.Result(int(rc))
}

func (p *Port) Disconnect(h hv.Handle) error {
	return hv.Result(int(C.CAENHV_DeinitSystem(C.int(h))))
}

func (p *Port) GetFloat(h hv.Handle, slot uint16, param string, channels []uint16) ([]float32, error) {
	if len(channels) == 0 {
		return nil, errNoChannels
	}
	out := make([]float32, len(channels))
	if err := p.getParam(h, slot, param, channels, unsafe.Pointer(&out[0])); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Port) GetUint(h hv.Handle, slot uint16, param string, channels []uint16) ([]uint16, error) {
	if len(channels) == 0 {
		return nil, errNoChannels
	}
	out := make([]uint16, len(channels))
	if err := p.getParam(h, slot, param, channels, unsafe.Pointer(&out[0])); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Port) SetFloat(h hv.Handle, slot uint16, param string, channels []uint16, values []float32) error {
	if len(channels) == 0 {
		return errNoChannels
	}
	if len(values) != len(channels) {
		return fmt.Errorf("caen: %d values for %d channels", len(values), len(channels))
	}
	return setEach(channels, values, func(chs []uint16, v *float32) error {
		return p.setParam(h, slot, param, chs, unsafe.Pointer(v))
	})
}

func (p *Port) SetUint(h hv.Handle, slot uint16, param string, channels []uint16, values []uint16) error {
	if len(channels) == 0 {
		return errNoChannels
	}
	if len(values) != len(channels) {
		return fmt.Errorf("caen: %d values for %d channels", len(values), len(channels))
	}
	return setEach(channels, values, func(chs []uint16, v *uint16) error {
		return p.setParam(h, slot, param, chs, unsafe.Pointer(v))
	})
}

func (p *Port) LastError(h hv.Handle) string {
	return C.GoString(C.CAENHV_GetError(C.int(h)))
}

// getParam fills buf with one value per channel; setParam sends the single
// value at buf to every channel. Both hand Go memory straight to the library.
func (p *Port) getParam(h hv.Handle, slot uint16, param string, channels []uint16, buf unsafe.Pointer) error {
	name := C.CString(param)
	defer C.free(unsafe.Pointer(name))

	rc := C.CAENHV_GetChParam(C.int(h), C.ushort(slot), name, C.ushort(len(channels)),
		(*C.ushort)(unsafe.Pointer(&channels[0])), buf)
	return hv.Result(int(rc))
}

func (p *Port) setParam(h hv.Handle, slot uint16, param string, channels []uint16, buf unsafe.Pointer) error {
	name := C.CString(param)
	defer C.free(unsafe.Pointer(name))

	rc := C.CAENHV_SetChParam(C.int(h), C.ushort(slot), name, C.ushort(len(channels)),
		(*C.ushort)(unsafe.Pointer(&channels[0])), buf)
	return hv.Result(int(rc))
}
