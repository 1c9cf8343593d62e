package reco

import (
	"encoding/binary"
	"fmt"
	"os"

	"gonum.org/v1/gonum/optimize"
)

// TemplateFitResult holds the two fitted parameters of the model
// p0 × template(t) + p1 along with a diagnostic curve built from them.
type TemplateFitResult struct {
	// Scale factor applied to the template. Interpreted as the lower
	// bound on the NCV detection efficiency.
	P0 float64
	// Flat accidental-background rate
	P1 float64
	// Scaled template plus flat background, for comparison against the
	// measured distribution
	Curve *Hist1D
	// Chi-square of the fit at the minimum
	Chi2 float64
}

// binVariance returns the Poisson variance of one data bin, floored at
// the variance of a single raw count (the squared normalization factor)
// so that empty bins do not blow up the chi-square.
func binVariance(h *Hist1D, bin int) float64 {
	variance := h.BinError(bin) * h.BinError(bin)
	if floor := h.scale * h.scale; variance < floor {
		variance = floor
	}
	return variance
}

// FitTemplate fits scale × template + constant against a measured
// calibration-source histogram over [fitStart, fitEnd), minimizing the
// chi-square over Poisson-distributed bin counts with Nelder-Mead. The
// variance floor tracks the histogram's normalization, so normalized and
// raw-count histograms get the same relative bin weights.
func FitTemplate(data *Hist1D, template *Hist1D, fitStart float64,
	fitEnd float64) (*TemplateFitResult, error) {

	if data.NumBins() != template.NumBins() {
		return nil, fmt.Errorf("template fit: bin count mismatch (%d data, %d template)",
			data.NumBins(), template.NumBins())
	}

	firstBin := data.FindBin(fitStart)
	if firstBin < 0 {
		firstBin = 0
	}

	chi2 := func(p []float64) float64 {
		total := 0.
		for b := firstBin; b < data.NumBins(); b++ {
			if data.BinCenter(b) >= fitEnd {
				break
			}
			expected := p[0]*template.BinContent(b) + p[1]
			observed := data.BinContent(b)
			variance := binVariance(data, b)
			diff := observed - expected
			total += diff * diff / variance
		}
		return total
	}

	problem := optimize.Problem{Func: chi2}
	initial := []float64{1., 1e-3}

	fit, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("template fit failed: %w", err)
	}

	result := &TemplateFitResult{
		P0:   fit.X[0],
		P1:   fit.X[1],
		Chi2: fit.F,
	}

	// Diagnostic "scaled simulation + flat background" curve
	result.Curve = template.Clone(data.Name + "_fit")
	result.Curve.Title = "Scaled FREYA/RAT-PAC prediction + flat background"
	result.Curve.Scale(result.P0)
	for b := 0; b < result.Curve.NumBins(); b++ {
		result.Curve.SetBinContent(b, result.Curve.BinContent(b)+result.P1)
	}

	return result, nil
}

// FitStartTime returns the lower edge of the template fit range for the
// given readout mode: Hefty minibuffers start closer to the trigger, so
// their fit window opens earlier.
func FitStartTime(heftyMode bool) float64 {
	if heftyMode {
		return HEFTY_FIT_START_TIME
	}
	return NONHEFTY_FIT_START_TIME
}

// ShiftTemplate builds the fit template from simulated capture times,
// applying the mode-dependent constant time offset.
func ShiftTemplate(captureTimes []float64, heftyMode bool, name string) *Hist1D {
	offset := FREYA_NONHEFTY_TIME_OFFSET
	if heftyMode {
		offset = FREYA_HEFTY_TIME_OFFSET
	}

	hist := NewHist1D(name, "FREYA + RAT-PAC capture times",
		NUM_TIME_BINS, 0., TIME_HIST_MAX)
	for _, t := range captureTimes {
		hist.Fill(t + offset)
	}
	hist.Scale(1e-6)
	return hist
}

// ReadCaptureTimes loads simulated neutron capture times (ns) stored as
// consecutive little-endian float64 values.
func ReadCaptureTimes(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	times := make([]float64, info.Size()/8)
	err = binary.Read(file, binary.LittleEndian, &times)
	if err != nil {
		return nil, err
	}
	return times, nil
}
