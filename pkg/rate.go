package reco

import (
	"fmt"
	"math"
)

// TimingResult bundles the event time histogram for one NCV position with
// the raw signal and expected background counts (already scaled by the
// normalization factor) extracted from it.
type TimingResult struct {
	Hist                  *Hist1D
	RawSignal             ValueAndError
	Background            ValueAndError
	PreBeamBackground     ValueAndError
	TotalEntries          int64
	BeamMinibuffers       int64
	BackgroundMinibuffers int64
}

// NetSignal returns the background-subtracted signal estimate, or the raw
// signal when the subtraction is disabled. The reference analysis shipped
// with the subtraction switched off, so the choice is explicit here.
func (r *TimingResult) NetSignal(subtractBackground bool) ValueAndError {
	if subtractBackground {
		return r.RawSignal.Minus(r.Background)
	}
	return r.RawSignal
}

// MakeNonHeftyTimingHist accumulates the event time distribution for
// non-Hefty data: each readout holds a single untagged buffer and pulse
// start times are used directly as event times.
func MakeNonHeftyTimingHist(chunks []ReadoutSource, normFactor float64,
	name string, title string) (*TimingResult, error) {

	result := &TimingResult{Hist: NewTimeHist(name, title)}

	for chunkIndex, chunk := range chunks {
		logInfo(fmt.Sprintf("Reading chunk %d", chunkIndex), "nonhefty")

		numEntries := chunk.NumEntries()
		result.TotalEntries += int64(numEntries)

		for i := 0; i < numEntries; i++ {
			readout, err := chunk.Entry(i)
			if err != nil {
				return nil, err
			}

			ncv1Pulses, err := readout.Pulses(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, 0)
			if err != nil {
				return nil, err
			}

			oldTime := math.Inf(-1) // ns
			for _, pulse := range ncv1Pulses {
				eventTime := float64(pulse.StartTime())

				if !ApproveEvent(eventTime, oldTime, pulse, readout, 0) {
					continue
				}

				result.Hist.Fill(eventTime)
				oldTime = eventTime

				if eventTime >= NONHEFTY_BACKGROUND_START_TIME &&
					eventTime < NONHEFTY_BACKGROUND_END_TIME {
					result.Background.Value += 1.
				}
				if eventTime >= NONHEFTY_SIGNAL_START_TIME &&
					eventTime < NONHEFTY_SIGNAL_END_TIME {
					result.RawSignal.Value += 1.
				}
			}
		}
	}

	result.Background.PoissonError(false)
	result.RawSignal.PoissonError(false)

	logInfo(fmt.Sprintf("Found %v background events in %d non-Hefty buffers",
		result.Background, result.TotalEntries), "nonhefty")
	logInfo(fmt.Sprintf("Found %v raw signal events in %d non-Hefty buffers",
		result.RawSignal, result.TotalEntries), "nonhefty")

	backgroundWindow := NONHEFTY_BACKGROUND_END_TIME - NONHEFTY_BACKGROUND_START_TIME
	backgroundRate := result.Background.Div(backgroundWindow * float64(result.TotalEntries))
	logInfo(fmt.Sprintf("Background rate = %v events / ns", backgroundRate), "nonhefty")

	// Extrapolate the background rate into the signal window
	backgroundFactor := (NONHEFTY_SIGNAL_END_TIME - NONHEFTY_SIGNAL_START_TIME) /
		backgroundWindow
	logInfo(fmt.Sprintf("Expected background counts = %v",
		result.Background.Times(backgroundFactor)), "nonhefty")

	result.Background = result.Background.Times(backgroundFactor * normFactor)
	result.RawSignal = result.RawSignal.Times(normFactor)
	result.Hist.Scale(normFactor)

	return result, nil
}

// MakeHeftyTimingHist accumulates the event time distribution for Hefty
// mode data, joining the reconstructed readout stream with the Hefty
// timing stream and converting pulse times to time-since-beam using the
// minibuffer timestamps.
func MakeHeftyTimingHist(readoutChunks []ReadoutSource, timingChunks []TimingSource,
	normFactor float64, name string, title string,
	clock *BeamClock) (*TimingResult, error) {

	result := &TimingResult{Hist: NewTimeHist(name, title)}

	err := MergeStreams(readoutChunks, timingChunks,
		func(readout *RecoReadout, record *HeftyRecord) error {
			result.TotalEntries++
			clock.StartReadout()

			for m := 0; m < NUM_HEFTY_MINIBUFFERS; m++ {
				label := record.Label(m)

				if IsBackgroundMinibuffer(label) {
					result.BackgroundMinibuffers++
				} else if label == BeamLabel {
					result.BeamMinibuffers++
				}
				clock.Observe(record, m)

				ncv1Pulses, err := readout.Pulses(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, m)
				if err != nil {
					return err
				}
				if len(ncv1Pulses) == 0 {
					continue
				}

				oldTime := math.Inf(-1) // ns
				for _, pulse := range ncv1Pulses {
					eventTime, err := clock.EventTime(pulse.StartTime(), record, m)
					if err != nil {
						return err
					}
					if label != SourceLabel && !clock.Known() {
						logError(fmt.Sprintf("WARNING: missing beam time in readout %d",
							record.SequenceID))
					}

					if !ApproveEvent(eventTime, oldTime, pulse, readout, m) {
						continue
					}

					// Only trust the event time if we know when the last
					// beam spill occurred
					if clock.Known() {
						result.Hist.Fill(eventTime)
						oldTime = eventTime

						if eventTime >= HEFTY_SIGNAL_START_TIME &&
							eventTime < HEFTY_SIGNAL_END_TIME {
							result.RawSignal.Value += 1.
						}
						if IsBackgroundMinibuffer(label) {
							result.Background.Value += 1.
						}
					} else {
						logError(fmt.Sprintf("WARNING: event with unknown beam"+
							" spill time in readout %d", record.SequenceID))
					}

					// Extra background estimate from the small pre-beam
					// region of beam minibuffers
					if label == BeamLabel {
						mbStart := float64(pulse.StartTime())
						if mbStart >= HEFTY_BACKGROUND_START_TIME &&
							mbStart < HEFTY_BACKGROUND_END_TIME {
							result.PreBeamBackground.Value += 1.
						}
					}
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	result.Background.PoissonError(true)
	result.RawSignal.PoissonError(true)
	result.PreBeamBackground.PoissonError(true)

	logInfo(fmt.Sprintf("Found %v background events in %d minibuffers",
		result.Background, result.BackgroundMinibuffers), "hefty")
	logInfo(fmt.Sprintf("Found %v raw signal events in %d beam spills",
		result.RawSignal, result.BeamMinibuffers), "hefty")

	// Convert the raw number of background counts into a rate per
	// nanosecond, then extrapolate it into the signal window
	if result.BackgroundMinibuffers > 0 {
		result.Background = result.Background.Div(
			HEFTY_MINIBUFFER_TIME * float64(result.BackgroundMinibuffers))
	}
	logInfo(fmt.Sprintf("Background rate = %v events / ns", result.Background), "hefty")

	backgroundFactor := (HEFTY_SIGNAL_END_TIME - HEFTY_SIGNAL_START_TIME) *
		float64(result.BeamMinibuffers)
	logInfo(fmt.Sprintf("Expected background counts = %v",
		result.Background.Times(backgroundFactor)), "hefty")

	if result.BeamMinibuffers > 0 {
		preBeamWindow := HEFTY_BACKGROUND_END_TIME - HEFTY_BACKGROUND_START_TIME
		logInfo(fmt.Sprintf("Pre-beam background rate = %v events / ns",
			result.PreBeamBackground.Div(preBeamWindow*float64(result.BeamMinibuffers))),
			"hefty")
	}

	result.Background = result.Background.Times(backgroundFactor * normFactor)
	result.RawSignal = result.RawSignal.Times(normFactor)
	result.Hist.Scale(normFactor)

	return result, nil
}

// ComputeSoftRate estimates the random pulse rate (events per ns) from
// untagged soft-trigger data, applying the same cut cascade as the signal
// selection.
func ComputeSoftRate(chunks []ReadoutSource) (float64, error) {
	var numPulses int64
	var numEntries int64

	for _, chunk := range chunks {
		for i := 0; i < chunk.NumEntries(); i++ {
			readout, err := chunk.Entry(i)
			if err != nil {
				return 0, err
			}
			numEntries++

			ncv1Pulses, err := readout.Pulses(NCV_PMT1_CARD, NCV_PMT1_CHANNEL, 0)
			if err != nil {
				return 0, err
			}

			oldTime := math.Inf(-1) // ns
			for _, pulse := range ncv1Pulses {
				eventTime := float64(pulse.StartTime())
				if ApproveEvent(eventTime, oldTime, pulse, readout, 0) {
					numPulses++
					oldTime = eventTime
				}
			}
		}
	}

	if numEntries == 0 {
		return 0, nil
	}

	softRate := float64(numPulses) / (float64(numEntries) * NONHEFTY_BUFFER_TIME)
	logInfo(fmt.Sprintf("Found %d pulses in %d soft triggers", numPulses, numEntries),
		"softrate")
	logInfo(fmt.Sprintf("Background pulse rate = %g pulses / ns", softRate), "softrate")
	return softRate, nil
}
