package hv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupParam(t *testing.T) {
	expected := map[string]Kind{
		"VMon": Float32, "IMon": Float32, "V0Set": Float32, "I0Set": Float32,
		"RUp": Float32, "RDWn": Float32, "SVMax": Float32,
		"Pw": UInt16, "PDwn": UInt16, "Status": UInt16,
	}

	for name, kind := range expected {
		t.Run(name, func(t *testing.T) {
			p, err := LookupParam(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name)
			assert.Equal(t, kind, p.Kind)
		})
	}
	assert.Len(t, Params(), len(expected))
}

func TestLookupParamIgnoresCase(t *testing.T) {
	for _, name := range []string{"vmon", "VMon", "VMON", " vMoN "} {
		p, err := LookupParam(name)
		require.NoError(t, err, name)
		assert.Equal(t, Param{Name: VMon, Kind: Float32}, p)
	}
}

func TestLookupParamUnknown(t *testing.T) {
	for _, name := range []string{"", "ChStatus", "V1Set", "vmon2"} {
		_, err := LookupParam(name)
		assert.ErrorIs(t, err, ErrUnknownParameter, name)
		assert.ErrorIs(t, err, ErrInvalidArgument, name)
	}
}

func TestParamsOrder(t *testing.T) {
	ps := Params()
	require.Len(t, ps, 10)
	assert.Equal(t, Param{Name: I0Set, Kind: Float32}, ps[0])
	assert.Equal(t, Param{Name: PDwn, Kind: UInt16}, ps[7])
}
