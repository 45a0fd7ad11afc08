//go:build !caenhv

package caen

import "hvctl/pkg/hv"

func (p *Port) Connect(cfg hv.ConnConfig) (hv.Handle, error) {
	p.logger.Debugf("Connect %s via %s: wrapper not linked", cfg.System, cfg.Link)
	return 0, ErrUnavailable
}

func (p *Port) Disconnect(hv.Handle) error {
	return ErrUnavailable
}

func (p *Port) GetFloat(hv.Handle, uint16, string, []uint16) ([]float32, error) {
	return nil, ErrUnavailable
}

func (p *Port) GetUint(hv.Handle, uint16, string, []uint16) ([]uint16, error) {
	return nil, ErrUnavailable
}

func (p *Port) SetFloat(hv.Handle, uint16, string, []uint16, []float32) error {
	return ErrUnavailable
}

func (p *Port) SetUint(hv.Handle, uint16, string, []uint16, []uint16) error {
	return ErrUnavailable
}

func (p *Port) LastError(hv.Handle) string {
	return ""
}
