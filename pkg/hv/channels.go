package hv

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseChannels expands a channel specification such as "0,2,4-6" into the
// channel list it names. Ranges may be written in either direction and always
// expand in ascending order. Repeated channels are kept, in spec order.
func ParseChannels(spec string) ([]uint16, error) {
	var out []uint16
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		// A leading dash would be a negative number, not a range separator.
		if i := strings.Index(tok, "-"); i > 0 {
			a, err := parseChannel(tok[:i])
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidChannelSpec, tok)
			}
			b, err := parseChannel(tok[i+1:])
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidChannelSpec, tok)
			}
			if a > b {
				a, b = b, a
			}
			for ch := int(a); ch <= int(b); ch++ {
				out = append(out, uint16(ch))
			}
			continue
		}

		ch, err := parseChannel(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChannelSpec, tok)
		}
		out = append(out, ch)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no channels in %q", ErrInvalidChannelSpec, spec)
	}
	return out, nil
}

func parseChannel(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
