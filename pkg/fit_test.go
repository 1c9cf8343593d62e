package reco

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFitTemplateRecoversParameters(t *testing.T) {
	template := NewTimeHist("template", "capture time template")
	data := NewTimeHist("data", "synthetic source data")

	// Exponential capture-time shape, data = 2 × template + 5
	for b := 0; b < template.NumBins(); b++ {
		shape := 100. * math.Exp(-float64(b)/10.)
		template.SetBinContent(b, shape)
		data.SetBinContent(b, 2.*shape+5.)
	}

	fit, err := FitTemplate(data, template, 0., TIME_HIST_MAX)
	require.NoError(t, err)
	require.InDelta(t, 2., fit.P0, 0.05)
	require.InDelta(t, 5., fit.P1, 0.05)

	// The diagnostic curve reproduces the data when the fit is exact
	require.InDelta(t, data.BinContent(0), fit.Curve.BinContent(0), 0.5)
	require.InDelta(t, data.BinContent(50), fit.Curve.BinContent(50), 0.5)
}

func TestFitTemplateNormalizedData(t *testing.T) {
	template := NewTimeHist("template", "capture time template")
	data := NewTimeHist("data", "synthetic source counts")

	for b := 0; b < template.NumBins(); b++ {
		shape := 100. * math.Exp(-float64(b)/10.)
		template.SetBinContent(b, shape)
		data.FillW(data.BinCenter(b), 2.*shape+5.)
	}

	// Density normalization, as applied to source data before fitting.
	// The fitted parameters must scale with the data.
	norm := 1. / 400.
	data.Scale(norm)

	fit, err := FitTemplate(data, template, 0., TIME_HIST_MAX)
	require.NoError(t, err)
	require.InDelta(t, 2.*norm, fit.P0, 0.05*norm)
	require.InDelta(t, 5.*norm, fit.P1, 0.05*norm)
}

func TestBinVarianceFloorFollowsNormalization(t *testing.T) {
	h := NewTimeHist("counts", "")
	h.Fill(h.BinCenter(2))
	h.Fill(h.BinCenter(2))
	h.Fill(h.BinCenter(2))
	h.Fill(h.BinCenter(2))

	// Raw counts: variance is the count, empty bins floored at one
	require.InDelta(t, 4., binVariance(h, 2), 1e-12)
	require.InDelta(t, 1., binVariance(h, 3), 1e-12)

	// After normalization the floor is one raw count, not one
	h.Scale(0.5)
	require.InDelta(t, 1., binVariance(h, 2), 1e-12)
	require.InDelta(t, 0.25, binVariance(h, 3), 1e-12)
}

func TestFitTemplateBinCountMismatch(t *testing.T) {
	data := NewTimeHist("data", "")
	template := NewHist1D("template", "", 10, 0., TIME_HIST_MAX)

	_, err := FitTemplate(data, template, 0., TIME_HIST_MAX)
	require.Error(t, err)
}

func TestFitStartTime(t *testing.T) {
	require.Equal(t, NONHEFTY_FIT_START_TIME, FitStartTime(false))
	require.Equal(t, HEFTY_FIT_START_TIME, FitStartTime(true))
}

func TestShiftTemplate(t *testing.T) {
	captureTimes := []float64{1000.}

	nonHefty := ShiftTemplate(captureTimes, false, "freya_hist")
	// 1000 ns capture shifted by 2000 ns lands in bin 3
	require.InDelta(t, 1e-6, nonHefty.BinContent(3), 1e-18)
	require.Zero(t, nonHefty.BinContent(1))

	hefty := ShiftTemplate(captureTimes, true, "hefty_freya_hist")
	require.InDelta(t, 1e-6, hefty.BinContent(1), 1e-18)
}

func TestReadCaptureTimes(t *testing.T) {
	want := []float64{120.5, 4000., 75000.25}

	filename := filepath.Join(t.TempDir(), "capture_times.dat")
	file, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, binary.Write(file, binary.LittleEndian, want))
	require.NoError(t, file.Close())

	got, err := ReadCaptureTimes(filename)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ReadCaptureTimes(filepath.Join(t.TempDir(), "missing.dat"))
	require.Error(t, err)
}
