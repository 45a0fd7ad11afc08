package hv

import (
	"fmt"
	"strings"
)

// SystemType is the wrapper's CAENHV_SYSTEM_TYPE_t.
type SystemType int

const (
	SY1527 SystemType = iota
	SY2527
	SY4527
	SY5527
	N568
	V65XX
	N1470
	V8100
	N568E
	DT55XX
	FTK
	DT55XXE
	N1068
	SMARTHV
	NGPS
	N1168
	R6060
)

var systemNames = []string{
	"SY1527", "SY2527", "SY4527", "SY5527", "N568", "V65XX", "N1470", "V8100",
	"N568E", "DT55XX", "FTK", "DT55XXE", "N1068", "SMARTHV", "NGPS", "N1168",
	"R6060",
}

func (s SystemType) String() string {
	if s >= 0 && int(s) < len(systemNames) {
		return systemNames[s]
	}
	return fmt.Sprintf("SystemType(%d)", int(s))
}

// ParseSystemType resolves a system name such as "sy4527", ignoring case.
func ParseSystemType(s string) (SystemType, error) {
	for i, name := range systemNames {
		if strings.EqualFold(s, name) {
			return SystemType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown system %q", ErrInvalidArgument, s)
}

// LinkType is the wrapper's LINKTYPE_* value.
type LinkType int

const (
	LinkTCPIP LinkType = iota
	LinkRS232
	LinkCAENET
	LinkUSB
	LinkOptLink
	LinkUSBVCP
	LinkUSB3
	LinkA4818
)

var linkNames = map[string]LinkType{
	"tcpip":        LinkTCPIP,
	"rs232":        LinkRS232,
	"caenet":       LinkCAENET,
	"usb":          LinkUSB,
	"optlink":      LinkOptLink,
	"optical":      LinkOptLink,
	"optical_link": LinkOptLink,
	"usbvcp":       LinkUSBVCP,
	"usb_vcp":      LinkUSBVCP,
	"usb3":         LinkUSB3,
	"a4818":        LinkA4818,
}

func (l LinkType) String() string {
	switch l {
	case LinkTCPIP:
		return "tcpip"
	case LinkRS232:
		return "rs232"
	case LinkCAENET:
		return "caenet"
	case LinkUSB:
		return "usb"
	case LinkOptLink:
		return "optlink"
	case LinkUSBVCP:
		return "usbvcp"
	case LinkUSB3:
		return "usb3"
	case LinkA4818:
		return "a4818"
	default:
		return fmt.Sprintf("LinkType(%d)", int(l))
	}
}

// ParseLinkType resolves a link name such as "TCPIP" or "optical", ignoring case.
func ParseLinkType(s string) (LinkType, error) {
	if l, ok := linkNames[strings.ToLower(s)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("%w: unknown link %q", ErrInvalidArgument, s)
}
