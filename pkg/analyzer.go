package reco

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// The number of samples to use per minibuffer when computing baseline
// means using the ZE3RA method
const NUM_BASELINE_SAMPLES int = 25

// All F-distribution probabilities below this value will pass the
// variance consistency test in Ze3raBaseline
const Q_CRITICAL float64 = 1e-4

// Ze3raBaseline computes the signal baseline for one channel using the
// technique from the ZE3RA code (section 2.2 of arXiv:1106.0808): the ADC
// mean and variance of the first few samples of each minibuffer are
// compared pairwise with an F-distribution test, and the baselines of the
// mutually consistent minibuffers are averaged.
func Ze3raBaseline(channel *RawChannel) (float64, error) {
	numMB := channel.NumMinibuffers()

	means := make([]float64, 0, numMB)
	variances := make([]float64, 0, numMB)

	for mb := 0; mb < numMB; mb++ {
		data, err := channel.MinibufferData(mb)
		if err != nil {
			return 0, err
		}
		cutoff := NUM_BASELINE_SAMPLES
		if cutoff > len(data) {
			cutoff = len(data)
		}
		samples := make([]float64, cutoff)
		for i := 0; i < cutoff; i++ {
			samples[i] = float64(data[i])
		}
		means = append(means, stat.Mean(samples, nil))
		variances = append(variances, stat.Variance(samples, nil))
	}

	// F-distribution probabilities for each pair of adjacent minibuffers
	nu := float64(NUM_BASELINE_SAMPLES-1) / 2.
	qs := make([]float64, 0, numMB)
	for j := 0; j+1 < len(variances); j++ {
		f := variances[j] / variances[j+1]
		if f < 1. {
			f = 1. / f
		}
		q := mathext.RegIncBeta(nu, nu, 1./(1.+f))
		qs = append(qs, q)
	}

	if len(qs) == 0 {
		// Single-minibuffer readout, nothing to compare against
		return means[0], nil
	}

	baselineMean := 0.
	numPassing := 0
	for k, q := range qs {
		if q < Q_CRITICAL {
			numPassing++
			baselineMean += means[k]
		}
	}

	if numPassing > 0 {
		return baselineMean / float64(numPassing), nil
	}

	// If none of the minibuffers passed the F-distribution test, adopt the
	// baseline of the one closest to passing
	minIndex := 0
	for k, q := range qs {
		if q < qs[minIndex] {
			minIndex = k
		}
	}
	return means[minIndex], nil
}

// FindPulses scans one minibuffer of a channel for negative-going pulses
// that exceed the threshold (in ADC counts below the baseline). It is a
// stateless function: the configuration travels in its arguments.
func FindPulses(channel *RawChannel, minibuffer int, baseline float64,
	thresholdADC float64) ([]RecoPulse, error) {

	data, err := channel.MinibufferData(minibuffer)
	if err != nil {
		return nil, err
	}

	var pulses []RecoPulse
	inPulse := false
	startIndex := 0
	peakExcursion := 0.
	integral := 0.

	emit := func(endIndex int) {
		rawAmplitude := uint16(math.Round(peakExcursion))
		amplitude := peakExcursion * ADC_TO_VOLT
		charge := integral * ADC_TO_VOLT * float64(NS_PER_SAMPLE) / TERMINATION_OHMS
		pulses = append(pulses, NewRecoPulse(int64(startIndex)*NS_PER_SAMPLE,
			amplitude, charge, rawAmplitude))
	}

	for i, sample := range data {
		excursion := baseline - float64(sample)
		if excursion > thresholdADC {
			if !inPulse {
				inPulse = true
				startIndex = i
				peakExcursion = 0.
				integral = 0.
			}
			if excursion > peakExcursion {
				peakExcursion = excursion
			}
			integral += excursion
		} else if inPulse {
			inPulse = false
			emit(i)
		}
	}
	if inPulse {
		emit(len(data))
	}

	return pulses, nil
}

// ReconstructReadout runs baseline estimation and pulse finding over every
// channel of a raw readout and stores the results under the same
// SequenceID.
func ReconstructReadout(raw *RawReadout, thresholdADC float64) (*RecoReadout, error) {
	reco := NewRecoReadout(raw.SequenceID())

	for cardID, card := range raw.Cards() {
		for channelID := range card.Channels() {
			channel, _ := card.Channel(channelID)
			baseline, err := Ze3raBaseline(&channel)
			if err != nil {
				return nil, err
			}
			for mb := 0; mb < channel.NumMinibuffers(); mb++ {
				pulses, err := FindPulses(&channel, mb, baseline, thresholdADC)
				if err != nil {
					return nil, err
				}
				reco.AddPulses(cardID, channelID, mb, pulses)
			}
		}
	}
	return reco, nil
}
