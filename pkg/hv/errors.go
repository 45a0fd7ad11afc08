package hv

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument covers bad CLI input detected before any device call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidChannelSpec is returned for malformed channel specifications.
	ErrInvalidChannelSpec = fmt.Errorf("%w: invalid channel spec", ErrInvalidArgument)

	// ErrUnknownParameter is returned for parameter names not in the registry.
	ErrUnknownParameter = fmt.Errorf("%w: unknown parameter", ErrInvalidArgument)

	// ErrConnectFailed is returned when a session cannot be established.
	ErrConnectFailed = errors.New("connect failed")

	// ErrDeviceCall is returned when a batched parameter call does not succeed.
	ErrDeviceCall = errors.New("device call failed")
)

// Code is a CAENHVRESULT status code. Zero means success.
type Code int

// codeNames maps wrapper status codes to their CAENHVWrapper.h names.
var codeNames = map[Code]string{
	0:  "CAENHV_OK",
	1:  "CAENHV_SYSERR",
	2:  "CAENHV_WRITEERR",
	3:  "CAENHV_READERR",
	4:  "CAENHV_TIMEERR",
	5:  "CAENHV_DOWN",
	6:  "CAENHV_NOTPRES",
	7:  "CAENHV_SLOTNOTPRES",
	8:  "CAENHV_NOSERIAL",
	9:  "CAENHV_MEMORYFAULT",
	10: "CAENHV_OUTOFRANGE",
	11: "CAENHV_EXECCOMNOTIMPL",
	12: "CAENHV_GETPROPNOTIMPL",
	13: "CAENHV_SETPROPNOTIMPL",
	14: "CAENHV_PROPNOTFOUND",
	15: "CAENHV_EXECNOTFOUND",
	16: "CAENHV_NOTEXECUTED",
	17: "CAENHV_GETPROPNOTEXEC",
	18: "CAENHV_SETPROPNOTEXEC",
}

const (
	CodeOK             Code = 0
	CodeWriteErr       Code = 2
	CodeReadErr        Code = 3
	CodeNotPresent     Code = 6
	CodeSlotNotPresent Code = 7
	CodeOutOfRange     Code = 10
	CodeSetPropNotImpl Code = 13
	CodePropNotFound   Code = 14
)

func (c Code) Error() string {
	if s, ok := codeNames[c]; ok {
		return fmt.Sprintf("%d - %s", int(c), s)
	}
	return fmt.Sprintf("%d - UNKNOWN_ERROR_CODE", int(c))
}

// Result converts a raw library return value to an error, nil on success.
func Result(code int) error {
	if code == 0 {
		return nil
	}
	return Code(code)
}

// describe renders a code the way operators see it in the wrapper's own tools.
func describe(code Code, text string) string {
	if text == "" {
		return fmt.Sprintf("rc=%d (0x%X)", int(code), int(code))
	}
	return fmt.Sprintf("rc=%d (0x%X) : %s", int(code), int(code), text)
}

// DeviceError is a failed batched get/set call.
type DeviceError struct {
	Op    string // "get" or "set"
	Param string
	Code  Code
	Text  string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s %s failed %s", e.Op, e.Param, describe(e.Code, e.Text))
}

func (e *DeviceError) Unwrap() error {
	return ErrDeviceCall
}

// ConnectError is a failed Port.Connect.
type ConnectError struct {
	Config ConnConfig
	Code   Code
	Text   string
	Err    error // set when the failure did not come from the library
}

func (e *ConnectError) Error() string {
	detail := describe(e.Code, e.Text)
	if e.Err != nil {
		detail = e.Err.Error()
	}
	return fmt.Sprintf("InitSystem failed %s (sys=%s, link=%s, host=%s)",
		detail, e.Config.System, e.Config.Link, e.Config.Host)
}

func (e *ConnectError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConnectFailed, e.Err}
	}
	return []error{ErrConnectFailed}
}
