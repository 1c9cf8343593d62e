package reco

// MinibufferLabel identifies the trigger source of one Hefty mode
// minibuffer, as recorded by the timing scripts.
type MinibufferLabel int

const (
	UnknownLabel  MinibufferLabel = 0
	BeamLabel     MinibufferLabel = 1
	NCVLabel      MinibufferLabel = 2
	CosmicLabel   MinibufferLabel = 3
	SourceLabel   MinibufferLabel = 4
	PeriodicLabel MinibufferLabel = 5
	MinRateLabel  MinibufferLabel = 6
	SoftwareLabel MinibufferLabel = 7
)

func (l MinibufferLabel) String() string {
	switch l {
	case BeamLabel:
		return "beam"
	case NCVLabel:
		return "ncv"
	case CosmicLabel:
		return "cosmic"
	case SourceLabel:
		return "source"
	case PeriodicLabel:
		return "periodic"
	case MinRateLabel:
		return "minrate"
	case SoftwareLabel:
		return "software"
	}
	return "unknown"
}

// IsBackgroundMinibuffer reports whether a minibuffer can be used to
// estimate random-in-time backgrounds. The software and periodic triggers
// qualify; minrate buffers had the LEDs enabled but are included following
// the reference analysis.
func IsBackgroundMinibuffer(label MinibufferLabel) bool {
	return label == SoftwareLabel || label == PeriodicLabel || label == MinRateLabel
}

// HeftyRecord is one row of the Hefty timing stream: the per-minibuffer
// trigger labels and timestamps recorded for a single readout.
type HeftyRecord struct {
	SequenceID int
	Labels     [NUM_HEFTY_MINIBUFFERS]MinibufferLabel
	TSinceBeam [NUM_HEFTY_MINIBUFFERS]int32  // ns
	More       [NUM_HEFTY_MINIBUFFERS]int32  // only element 39 is currently meaningful
	Time       [NUM_HEFTY_MINIBUFFERS]uint64 // ns since the Unix epoch
}

// Label returns the trigger label for one minibuffer.
func (h *HeftyRecord) Label(minibuffer int) MinibufferLabel {
	return h.Labels[minibuffer]
}

// BeamClock tracks the timestamp of the most recent beam trigger so that
// pulse times can be converted to time-since-beam. Zero means the beam
// time is not yet known; events seen in that state are reported but must
// be excluded from all counts.
//
// Whether the beam time should persist across readouts or be reset for
// each one is ambiguous in the reference behavior (some readouts contain
// no beam minibuffer at all), so the choice is an explicit policy.
type BeamClock struct {
	lastBeamTime    uint64
	resetPerReadout bool
}

func NewBeamClock(resetPerReadout bool) *BeamClock {
	return &BeamClock{resetPerReadout: resetPerReadout}
}

func (bc *BeamClock) LastBeamTime() uint64 { return bc.lastBeamTime }

func (bc *BeamClock) Known() bool { return bc.lastBeamTime != 0 }

// StartReadout must be called once per readout before visiting its
// minibuffers in ascending index order.
func (bc *BeamClock) StartReadout() {
	if bc.resetPerReadout {
		bc.lastBeamTime = 0
	}
}

// Observe records the minibuffer in the clock state. Beam minibuffers
// update the reference time.
func (bc *BeamClock) Observe(record *HeftyRecord, minibuffer int) {
	if record.Labels[minibuffer] == BeamLabel {
		bc.lastBeamTime = record.Time[minibuffer]
	}
}

// EventTime converts a pulse start time (ns relative to the start of its
// minibuffer) to time since the last beam trigger. Source minibuffers are
// trusted as-is because the timing scripts do not compute a beam offset
// for them.
func (bc *BeamClock) EventTime(pulseStart int64, record *HeftyRecord,
	minibuffer int) (float64, error) {

	eventTime := float64(pulseStart)
	if record.Labels[minibuffer] == SourceLabel {
		return eventTime, nil
	}

	if record.Time[minibuffer] < bc.lastBeamTime {
		return 0, &ErrInvalidTimestamp{
			SequenceID:   record.SequenceID,
			Minibuffer:   minibuffer,
			Timestamp:    record.Time[minibuffer],
			LastBeamTime: bc.lastBeamTime,
		}
	}

	// Use the minibuffer timestamps to approximate the time since the
	// beam trigger
	eventTime += float64(record.Time[minibuffer] - bc.lastBeamTime)
	return eventTime, nil
}
