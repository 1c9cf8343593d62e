package reco

// ApproveEvent applies the full cut cascade to one candidate pulse on the
// primary NCV PMT, short-circuiting on the first failing cut. The cuts are
// applied the same way in Hefty and non-Hefty modes.
//
// oldTime is the event time of the last accepted pulse on the same
// minibuffer stream (negative infinity before any acceptance): callers
// must update it to eventTime on each acceptance and leave it alone on
// rejection so that the dead-time veto sees only prior accepted events.
func ApproveEvent(eventTime float64, oldTime float64, candidate RecoPulse,
	readout *RecoReadout, minibuffer int) bool {

	// Dead-time veto
	if eventTime <= oldTime+VETO_TIME {
		return false
	}

	// Tank-wide charge veto
	tankCharge, uniqueWaterPMTs := readout.TankCharge(minibuffer,
		candidate.StartTime(), candidate.StartTime()+TANK_CHARGE_WINDOW_LENGTH)

	if uniqueWaterPMTs >= UNIQUE_WATER_PMT_CUT {
		return false
	}
	if tankCharge >= TANK_CHARGE_CUT {
		return false
	}

	// NCV coincidence cut
	ncv1Time := candidate.StartTime()
	foundCoincidence := false
	for _, pulse := range readout.PulsesOrEmpty(NCV_PMT2_CARD, NCV_PMT2_CHANNEL, minibuffer) {
		ncv2Time := pulse.StartTime()
		delta := ncv1Time - ncv2Time
		if delta < 0 {
			delta = -delta
		}
		if delta < COINCIDENCE_TOLERANCE {
			foundCoincidence = true
			break
		}
	}

	return foundCoincidence
}
