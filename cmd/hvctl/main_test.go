package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hvctl/pkg/hv"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t  *testing.T
	db string
}

func newHarness(t *testing.T) *harness {
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &harness{t: t, db: filepath.Join(t.TempDir(), "hvctl.db")}
}

// run invokes hvctl against the simulator and returns stdout.
func (h *harness) run(args ...string) (string, error) {
	out, _, err := h.runStreams(args...)
	return out, err
}

func (h *harness) runStreams(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	app := newApp(&out)
	app.Writer = &errOut
	app.ErrWriter = &errOut

	argv := append([]string{"hvctl", "--simulate", "--db", h.db}, args...)
	err := app.Run(argv)
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, strings.Join(args, " "))
	return out
}

func TestCLIStateCarriesAcrossInvocations(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "CHECK OK\n", h.mustRun("check"))
	assert.Equal(t, "V0Set=0 OK\n", h.mustRun("set-v", "--slot", "2", "--channels", "0-1", "--voltage", "0"))
	assert.Equal(t, "Power=1 OK\n", h.mustRun("on", "--slot", "2", "--channels", "0-1"))
	assert.Equal(t, "slot,ch,pw,vmon,imon\n2,0,1,0,0\n2,1,1,0,0\n",
		h.mustRun("read", "--slot", "2", "--channels", "0,1"))
	assert.Equal(t, "Power=0 OK\n", h.mustRun("off", "-s", "2", "--ch", "0-1"))
	assert.Equal(t, "Pw=[0,0]\n", h.mustRun("param-get", "--slot", "2", "--channels", "1-0", "--param", "pw"))
}

func TestCLISetters(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "I0Set=12.5 OK\n", h.mustRun("set-i", "--slot", "0", "--channels", "3", "--imax", "12.5"))
	assert.Equal(t, "Ramp OK\n", h.mustRun("set-ramp", "--slot", "0", "--channels", "3", "--rup", "20", "--rdn", "30"))
	assert.Equal(t, "RDWn=[30]\n", h.mustRun("param-get", "--slot", "0", "--channels", "3", "--param", "RDWn"))
	assert.Equal(t, "PDwn=0 OK\n", h.mustRun("param-set", "--slot", "0", "--channels", "3", "--param", "PDwn", "--value", "0"))
}

func TestCLIRamp(t *testing.T) {
	h := newHarness(t)

	h.mustRun("param-set", "--slot", "1", "--channels", "0-3", "--param", "RUp", "--value", "4000")
	h.mustRun("param-set", "--slot", "1", "--channels", "0-3", "--param", "RDWn", "--value", "4000")

	out := h.mustRun("ramp-to", "--slot", "1", "--channels", "0-3", "--voltage", "100",
		"--tol", "1", "--poll-ms", "5", "--timeout-ms", "5000")
	assert.True(t, strings.HasSuffix(out, "OK ramp-to reached.\n"), out)

	out = h.mustRun("ramp-down", "--slot", "1", "--channels", "0-3", "--tol", "1", "--poll-ms", "5")
	assert.True(t, strings.HasSuffix(out, "OK ramp-down & OFF.\n"), out)

	_, err := h.run("ramp-to", "--slot", "1", "--channels", "0", "--voltage", "3000",
		"--poll-ms", "5", "--timeout-ms", "20")
	assert.Error(t, err)
}

func TestCLIInputErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"slot too large", []string{"read", "--slot", "70000", "--channels", "0"}, hv.ErrInvalidArgument},
		{"bad channels", []string{"read", "--slot", "0", "--channels", "a-b"}, hv.ErrInvalidChannelSpec},
		{"unknown param", []string{"param-get", "--slot", "0", "--channels", "0", "--param", "Foo"}, hv.ErrUnknownParameter},
		{"bad system", []string{"--system", "SY9999", "check"}, hv.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := h.run("read", "--slot", "0")
	assert.ErrorContains(t, err, "channels")
}

func TestCLIConfig(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "system=SY4527\nlink=tcpip\nhost=192.168.0.1\nuser=admin\npass=********\n",
		h.mustRun("config", "show"))

	assert.Equal(t, "Saved profile N1470 via usb at 10.1.2.3\n",
		h.mustRun("--system", "n1470", "--link", "USB", "--host", "10.1.2.3", "config", "set"))

	assert.Equal(t, "system=N1470\nlink=usb\nhost=10.1.2.3\nuser=admin\npass=********\n",
		h.mustRun("config", "show"))

	assert.Contains(t, h.mustRun("--host", "10.9.9.9", "config", "show"), "host=10.9.9.9\n")
}

func TestCLIApply(t *testing.T) {
	h := newHarness(t)
	table := filepath.Join(t.TempDir(), "table.txt")
	require.NoError(t, os.WriteFile(table, []byte("# ch name V0Set I0Set\n0,A,150,4\n1,B,250,5\n"), 0600))

	assert.Equal(t, "Applied V0Set/I0Set to 2 channel(s) in slot 6\n",
		h.mustRun("apply", "--slot", "6", "--file", table))
	assert.Equal(t, "V0Set=[150,250]\n", h.mustRun("param-get", "--slot", "6", "--channels", "0,1", "--param", "V0Set"))
}

func TestDescriptionListsParamTypes(t *testing.T) {
	d := description()
	assert.Contains(t, d, "float : I0Set, IMon, RDWn, RUp, SVMax, V0Set, VMon")
	assert.Contains(t, d, "ushort: PDwn, Pw, Status")
	assert.Contains(t, d, "--tol 5 --timeout-ms 600000 --poll-ms 500")
}

func TestCLIUsageGoesToStderr(t *testing.T) {
	h := newHarness(t)

	out, errOut, err := h.runStreams("read", "--slot", "0")
	assert.ErrorContains(t, err, "channels")
	assert.Empty(t, out)
	assert.Contains(t, errOut, "hvctl read")

	out, errOut, err = h.runStreams("set-v", "--slot", "0", "--channels", "0", "--voltage", "abc")
	assert.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Incorrect Usage")

	out, errOut, err = h.runStreams("check")
	require.NoError(t, err)
	assert.Equal(t, "CHECK OK\n", out)
	assert.Empty(t, errOut)
}

func TestCLIIgnoresEnvironment(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://127.0.0.1:1")
	t.Setenv("HVCTL_HOST", "10.9.9.9")
	t.Setenv("HVCTL_SYSTEM", "N1470")
	t.Setenv("DEBUG", "true")
	h := newHarness(t)

	assert.Equal(t, "system=SY4527\nlink=tcpip\nhost=192.168.0.1\nuser=admin\npass=********\n",
		h.mustRun("config", "show"))

	out := h.mustRun("ramp-to", "--slot", "0", "--channels", "0", "--voltage", "0", "--poll-ms", "5")
	assert.True(t, strings.HasSuffix(out, "OK ramp-to reached.\n"), out)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
