package reco

// RecoPulse is one reconstructed pulse found on a single channel and
// minibuffer. Immutable once produced by the pulse finder.
type RecoPulse struct {
	startTime    int64 // ns relative to the start of the minibuffer
	amplitude    float64
	charge       float64
	rawAmplitude uint16
}

func NewRecoPulse(startTime int64, amplitude float64, charge float64,
	rawAmplitude uint16) RecoPulse {
	return RecoPulse{
		startTime:    startTime,
		amplitude:    amplitude,
		charge:       charge,
		rawAmplitude: rawAmplitude,
	}
}

func (p RecoPulse) StartTime() int64 { return p.startTime }

// Amplitude of the pulse in volts
func (p RecoPulse) Amplitude() float64 { return p.amplitude }

// Charge of the pulse in nC
func (p RecoPulse) Charge() float64 { return p.charge }

// Amplitude of the pulse in ADC counts
func (p RecoPulse) RawAmplitude() uint16 { return p.rawAmplitude }
