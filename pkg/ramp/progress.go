package ramp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Sample is one poll of the convergence loop.
type Sample struct {
	Time      time.Time
	Slot      uint16
	Channels  []uint16
	VMon      []float32
	Target    float32
	Tolerance float32
	Converged bool
	Poll      int
}

// Reporter receives every sample, converged or not.
type Reporter interface {
	Report(s Sample)
}

// Reporters fans a sample out to several reporters in order.
type Reporters []Reporter

func (rs Reporters) Report(s Sample) {
	for _, r := range rs {
		r.Report(s)
	}
}

// TextReporter writes one operator line per sample:
//
//	14:03:07 VMon=[499.20, 500.10] target=500 tol=±5
type TextReporter struct {
	w io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) Report(s Sample) {
	fmt.Fprintf(r.w, "%s VMon=[%s] target=%s tol=±%s\n",
		s.Time.Format(time.TimeOnly), formatVector(s.VMon), FormatFloat(s.Target), FormatFloat(s.Tolerance))
}

func formatVector(vs []float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 2, 32)
	}
	return strings.Join(parts, ", ")
}

// FormatFloat prints a float32 in its shortest exact form.
func FormatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
