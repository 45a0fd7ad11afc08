package commands

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"hvctl/pkg/hv"
)

// TableRow is one line of a channel table: ch name V0Set I0Set.
type TableRow struct {
	Channel uint16
	Name    string
	V0Set   float32
	I0Set   float32
}

// ParseTable reads a channel table. Fields are separated by whitespace or
// commas. Blank lines, # comments and rows whose channel, V0Set or I0Set
// field is not a finite number (headers included) are skipped.
func ParseTable(r io.Reader) ([]TableRow, error) {
	var rows []TableRow

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) < 4 {
			continue
		}

		ch, err := strconv.ParseUint(fields[0], 10, 16)
		if err != nil {
			continue
		}
		v0, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			continue
		}
		i0, err := strconv.ParseFloat(fields[3], 32)
		if err != nil {
			continue
		}
		if !finite(v0) || !finite(i0) {
			continue
		}

		rows = append(rows, TableRow{
			Channel: uint16(ch),
			Name:    fields[1],
			V0Set:   float32(v0),
			I0Set:   float32(i0),
		})
	}
	return rows, sc.Err()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RunApply loads a channel table and writes its V0Set and I0Set columns to
// slot in two batched calls. Channels matched by exclude (a channel spec,
// may be empty) are left alone.
func RunApply(env Env, slot uint16, path, exclude string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", hv.ErrInvalidArgument, err)
	}
	defer f.Close()

	rows, err := ParseTable(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	skip := map[uint16]bool{}
	if strings.TrimSpace(exclude) != "" {
		chs, err := hv.ParseChannels(exclude)
		if err != nil {
			return err
		}
		for _, ch := range chs {
			skip[ch] = true
		}
	}

	var chs []uint16
	var v0, i0 []float32
	for _, row := range rows {
		if skip[row.Channel] {
			env.Logger.Debugf("Skipping excluded channel %d (%s)", row.Channel, row.Name)
			continue
		}
		chs = append(chs, row.Channel)
		v0 = append(v0, row.V0Set)
		i0 = append(i0, row.I0Set)
	}
	if len(chs) == 0 {
		return fmt.Errorf("%w: no channels to apply in %s", hv.ErrInvalidArgument, path)
	}

	return env.session(func(s *hv.Session) error {
		if err := s.SetFloat(slot, hv.V0Set, chs, v0); err != nil {
			return err
		}
		if err := s.SetFloat(slot, hv.I0Set, chs, i0); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Applied V0Set/I0Set to %d channel(s) in slot %d\n", len(chs), slot)
		return nil
	})
}
