package reco

import (
	"fmt"
	"math"
)

// ValueAndError is a scalar with its one-standard-deviation uncertainty.
type ValueAndError struct {
	Value float64
	Error float64
}

func (v *ValueAndError) Clear() {
	v.Value = 0.
	v.Error = 0.
}

// Minus subtracts with quadrature error propagation.
func (v ValueAndError) Minus(other ValueAndError) ValueAndError {
	return ValueAndError{
		Value: v.Value - other.Value,
		Error: math.Sqrt(v.Error*v.Error + other.Error*other.Error),
	}
}

func (v ValueAndError) Times(factor float64) ValueAndError {
	return ValueAndError{Value: v.Value * factor, Error: v.Error * factor}
}

func (v ValueAndError) Div(factor float64) ValueAndError {
	return ValueAndError{Value: v.Value / factor, Error: v.Error / factor}
}

// PoissonError sets the error to sqrt(value). With floorAtOne the error is
// never below one, so a window with zero observed counts does not produce
// a zero-variance background estimate.
func (v *ValueAndError) PoissonError(floorAtOne bool) {
	v.Error = math.Sqrt(v.Value)
	if floorAtOne && v.Error < 1. {
		v.Error = 1.
	}
}

func (v ValueAndError) String() string {
	return fmt.Sprintf("%g ± %g", v.Value, v.Error)
}

// Hist1D is a fixed-range, equal-width binned counter. Underflow and
// overflow entries are dropped.
type Hist1D struct {
	Name   string
	Title  string
	XLabel string
	YLabel string

	nBins    int
	xMin     float64
	xMax     float64
	contents []float64
	sumw2    []float64
	entries  int64
	scale    float64
}

func NewHist1D(name string, title string, nBins int, xMin float64, xMax float64) *Hist1D {
	return &Hist1D{
		Name:     name,
		Title:    title,
		nBins:    nBins,
		xMin:     xMin,
		xMax:     xMax,
		contents: make([]float64, nBins),
		sumw2:    make([]float64, nBins),
		scale:    1.,
	}
}

// NewTimeHist returns the standard event time histogram used throughout
// the analysis: 100 bins spanning [0, 80000) ns.
func NewTimeHist(name string, title string) *Hist1D {
	h := NewHist1D(name, title, NUM_TIME_BINS, 0., TIME_HIST_MAX)
	h.XLabel = "time (ns)"
	h.YLabel = "events / POT"
	return h
}

func (h *Hist1D) NumBins() int { return h.nBins }

func (h *Hist1D) XMin() float64 { return h.xMin }

func (h *Hist1D) XMax() float64 { return h.xMax }

func (h *Hist1D) Entries() int64 { return h.entries }

func (h *Hist1D) binWidth() float64 {
	return (h.xMax - h.xMin) / float64(h.nBins)
}

// FindBin returns the bin index for x, or -1 if x lies outside the range.
func (h *Hist1D) FindBin(x float64) int {
	if x < h.xMin || x >= h.xMax {
		return -1
	}
	return int((x - h.xMin) / h.binWidth())
}

func (h *Hist1D) Fill(x float64) {
	h.FillW(x, 1.)
}

func (h *Hist1D) FillW(x float64, weight float64) {
	bin := h.FindBin(x)
	if bin < 0 {
		return
	}
	h.contents[bin] += weight
	h.sumw2[bin] += weight * weight
	h.entries++
}

func (h *Hist1D) BinContent(bin int) float64 { return h.contents[bin] }

func (h *Hist1D) SetBinContent(bin int, value float64) { h.contents[bin] = value }

// BinError is the Poisson error on the bin content: sqrt of the summed
// squared weights.
func (h *Hist1D) BinError(bin int) float64 {
	return math.Sqrt(h.sumw2[bin])
}

func (h *Hist1D) BinLowEdge(bin int) float64 {
	return h.xMin + float64(bin)*h.binWidth()
}

func (h *Hist1D) BinCenter(bin int) float64 {
	return h.BinLowEdge(bin) + h.binWidth()/2.
}

// Scale multiplies every bin content (and error) by a constant. The
// cumulative factor is remembered so that one raw count remains a known
// quantity after normalization.
func (h *Hist1D) Scale(factor float64) {
	for b := 0; b < h.nBins; b++ {
		h.contents[b] *= factor
		h.sumw2[b] *= factor * factor
	}
	h.scale *= factor
}

// ScaleFactor returns the cumulative factor applied by Scale.
func (h *Hist1D) ScaleFactor() float64 { return h.scale }

// Clone returns an independent copy of the histogram under a new name.
func (h *Hist1D) Clone(name string) *Hist1D {
	clone := NewHist1D(name, h.Title, h.nBins, h.xMin, h.xMax)
	clone.XLabel = h.XLabel
	clone.YLabel = h.YLabel
	copy(clone.contents, h.contents)
	copy(clone.sumw2, h.sumw2)
	clone.entries = h.entries
	clone.scale = h.scale
	return clone
}
