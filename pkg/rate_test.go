package reco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// nonHeftyReadout returns a single-buffer readout with coincident NCV
// pulses at each of the given start times.
func nonHeftyReadout(sequenceID int, pulseTimes ...int64) *RecoReadout {
	readout := NewRecoReadout(sequenceID)
	readout.AddPulses(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, 0, nil)
	for _, start := range pulseTimes {
		readout.AddPulse(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, 0, NewRecoPulse(start, 0.05, 0.8, 100))
		readout.AddPulse(NCV_PMT2_CARD, NCV_PMT2_CHANNEL, 0, NewRecoPulse(start+10, 0.04, 0.6, 80))
	}
	return readout
}

func TestMakeNonHeftyTimingHist(t *testing.T) {
	// One signal-window event per readout, plus one background-window
	// event in the first readout
	chunk := ReadoutChunk{
		nonHeftyReadout(1, 5000, 25000),
		nonHeftyReadout(2, 30000),
	}

	normFactor := 0.5
	result, err := MakeNonHeftyTimingHist([]ReadoutSource{chunk}, normFactor,
		"test_hist", "test")
	require.NoError(t, err)

	require.Equal(t, int64(2), result.TotalEntries)
	require.Equal(t, int64(3), result.Hist.Entries())

	require.InDelta(t, 2.*normFactor, result.RawSignal.Value, 1e-12)

	// One raw background count, extrapolated from the background window
	// into the signal window before normalization
	backgroundFactor := (NONHEFTY_SIGNAL_END_TIME - NONHEFTY_SIGNAL_START_TIME) /
		(NONHEFTY_BACKGROUND_END_TIME - NONHEFTY_BACKGROUND_START_TIME)
	require.InDelta(t, backgroundFactor*normFactor, result.Background.Value, 1e-9)

	// Histogram contents carry the normalization
	require.InDelta(t, normFactor, result.Hist.BinContent(result.Hist.FindBin(25000.)), 1e-12)
}

func TestMakeNonHeftyTimingHistNormalizationLinearity(t *testing.T) {
	chunk := ReadoutChunk{
		nonHeftyReadout(1, 5000, 25000),
		nonHeftyReadout(2, 30000),
	}

	unit, err := MakeNonHeftyTimingHist([]ReadoutSource{chunk}, 1.,
		"unit_hist", "test")
	require.NoError(t, err)

	// The normalized outputs are linear in the normalization factor
	norm := 0.25
	scaled, err := MakeNonHeftyTimingHist([]ReadoutSource{chunk}, norm,
		"scaled_hist", "test")
	require.NoError(t, err)

	require.InDelta(t, norm*unit.RawSignal.Value, scaled.RawSignal.Value, 1e-12)
	require.InDelta(t, norm*unit.RawSignal.Error, scaled.RawSignal.Error, 1e-12)
	require.InDelta(t, norm*unit.Background.Value, scaled.Background.Value, 1e-12)
	for b := 0; b < unit.Hist.NumBins(); b++ {
		require.InDelta(t, norm*unit.Hist.BinContent(b), scaled.Hist.BinContent(b), 1e-12)
	}

	// Doubling the counts while halving the per-count weight (twice the
	// exposure) leaves the estimated rate unchanged
	doubled := ReadoutChunk{
		nonHeftyReadout(1, 5000, 25000),
		nonHeftyReadout(2, 30000),
		nonHeftyReadout(3, 5000, 25000),
		nonHeftyReadout(4, 30000),
	}
	halfWeight, err := MakeNonHeftyTimingHist([]ReadoutSource{doubled}, 0.5,
		"half_weight_hist", "test")
	require.NoError(t, err)
	require.InDelta(t, unit.RawSignal.Value, halfWeight.RawSignal.Value, 1e-12)
	require.InDelta(t, unit.Background.Value, halfWeight.Background.Value, 1e-12)
}

func TestMakeNonHeftyTimingHistAppliesVeto(t *testing.T) {
	// Second pulse arrives inside the dead-time window of the first
	chunk := ReadoutChunk{nonHeftyReadout(1, 25000, 25500)}

	result, err := MakeNonHeftyTimingHist([]ReadoutSource{chunk}, 1.,
		"veto_hist", "test")
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Hist.Entries())
	require.InDelta(t, 1., result.RawSignal.Value, 1e-12)
}

// heftyFixture builds one readout and its timing record: a beam trigger
// in minibuffer 0, an NCV self-trigger with one coincident pulse pair in
// minibuffer 1, and a software trigger with another in minibuffer 2.
func heftyFixture(sequenceID int) (*RecoReadout, *HeftyRecord) {
	readout := NewRecoReadout(sequenceID)
	for m := 0; m < NUM_HEFTY_MINIBUFFERS; m++ {
		readout.AddPulses(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, m, nil)
	}

	record := &HeftyRecord{SequenceID: sequenceID}
	record.Labels[0] = BeamLabel
	record.Time[0] = 1000000

	record.Labels[1] = NCVLabel
	record.Time[1] = 1002050
	readout.AddPulse(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, 1, NewRecoPulse(50, 0.05, 0.8, 100))
	readout.AddPulse(NCV_PMT2_CARD, NCV_PMT2_CHANNEL, 1, NewRecoPulse(60, 0.04, 0.6, 80))

	record.Labels[2] = SoftwareLabel
	record.Time[2] = 1004000
	readout.AddPulse(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, 2, NewRecoPulse(100, 0.05, 0.8, 100))
	readout.AddPulse(NCV_PMT2_CARD, NCV_PMT2_CHANNEL, 2, NewRecoPulse(110, 0.04, 0.6, 80))

	return readout, record
}

func TestMakeHeftyTimingHist(t *testing.T) {
	readout, record := heftyFixture(1)

	clock := NewBeamClock(false)
	result, err := MakeHeftyTimingHist(
		[]ReadoutSource{ReadoutChunk{readout}},
		[]TimingSource{TimingChunk{record}},
		1., "hefty_hist", "test", clock)
	require.NoError(t, err)

	require.Equal(t, int64(1), result.TotalEntries)
	require.Equal(t, int64(1), result.BeamMinibuffers)
	require.Equal(t, int64(1), result.BackgroundMinibuffers)

	// Self-trigger pulse at 50 ns in a minibuffer stamped 2050 ns after
	// the beam fills at 2100 ns; software-trigger pulse fills at 4100 ns
	require.Equal(t, int64(2), result.Hist.Entries())
	require.InDelta(t, 1., result.Hist.BinContent(result.Hist.FindBin(2100.)), 1e-12)
	require.InDelta(t, 1., result.Hist.BinContent(result.Hist.FindBin(4100.)), 1e-12)

	// Neither event lies in the signal window; the error floor applies
	require.Zero(t, result.RawSignal.Value)
	require.InDelta(t, 1., result.RawSignal.Error, 1e-12)

	// One background count converted to a rate over one background
	// minibuffer and extrapolated into the signal window
	backgroundRate := 1. / HEFTY_MINIBUFFER_TIME
	backgroundFactor := (HEFTY_SIGNAL_END_TIME - HEFTY_SIGNAL_START_TIME) * 1.
	require.InDelta(t, backgroundRate*backgroundFactor, result.Background.Value, 1e-9)
}

func TestComputeSoftRate(t *testing.T) {
	chunk := ReadoutChunk{nonHeftyReadout(1, 25000, 27000)}

	softRate, err := ComputeSoftRate([]ReadoutSource{chunk})
	require.NoError(t, err)
	require.InDelta(t, 2./NONHEFTY_BUFFER_TIME, softRate, 1e-18)

	empty, err := ComputeSoftRate(nil)
	require.NoError(t, err)
	require.Zero(t, empty)
}
