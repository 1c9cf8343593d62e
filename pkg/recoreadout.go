package reco

// RecoReadout owns the reconstructed pulses for one DAQ readout, keyed by
// the same SequenceID as its source RawReadout. The keys of the nested map
// (from outer to inner) are card index, channel index, and minibuffer index.
type RecoReadout struct {
	sequenceID int
	pulses     map[int]map[int]map[int][]RecoPulse
}

func NewRecoReadout(sequenceID int) *RecoReadout {
	return &RecoReadout{
		sequenceID: sequenceID,
		pulses:     make(map[int]map[int]map[int][]RecoPulse),
	}
}

func (r *RecoReadout) SequenceID() int { return r.sequenceID }

func (r *RecoReadout) AddPulse(card int, channel int, minibuffer int, pulse RecoPulse) {
	r.minibufferSlot(card, channel, minibuffer)
	r.pulses[card][channel][minibuffer] = append(r.pulses[card][channel][minibuffer], pulse)
}

func (r *RecoReadout) AddPulses(card int, channel int, minibuffer int, pulses []RecoPulse) {
	r.minibufferSlot(card, channel, minibuffer)
	r.pulses[card][channel][minibuffer] = append(r.pulses[card][channel][minibuffer], pulses...)
}

func (r *RecoReadout) minibufferSlot(card int, channel int, minibuffer int) {
	if _, ok := r.pulses[card]; !ok {
		r.pulses[card] = make(map[int]map[int][]RecoPulse)
	}
	if _, ok := r.pulses[card][channel]; !ok {
		r.pulses[card][channel] = make(map[int][]RecoPulse)
	}
	if _, ok := r.pulses[card][channel][minibuffer]; !ok {
		r.pulses[card][channel][minibuffer] = make([]RecoPulse, 0)
	}
}

// Pulses looks up the stored pulses with the exact three-level key. Any
// absent key level is an error.
func (r *RecoReadout) Pulses(card int, channel int, minibuffer int) ([]RecoPulse, error) {
	channelMap, ok := r.pulses[card]
	if !ok {
		return nil, &ErrMissingKey{Card: card, Channel: channel, Minibuffer: minibuffer}
	}
	minibufferMap, ok := channelMap[channel]
	if !ok {
		return nil, &ErrMissingKey{Card: card, Channel: channel, Minibuffer: minibuffer}
	}
	pulses, ok := minibufferMap[minibuffer]
	if !ok {
		return nil, &ErrMissingKey{Card: card, Channel: channel, Minibuffer: minibuffer}
	}
	return pulses, nil
}

// PulsesOrEmpty behaves like Pulses but treats an absent key as an empty
// pulse list. Used where a channel may legitimately record nothing.
func (r *RecoReadout) PulsesOrEmpty(card int, channel int, minibuffer int) []RecoPulse {
	pulses, err := r.Pulses(card, channel, minibuffer)
	if err != nil {
		return nil
	}
	return pulses
}

func (r *RecoReadout) AllPulses() map[int]map[int]map[int][]RecoPulse { return r.pulses }

// TankCharge sums the charge deposited on the water tank PMTs within
// [startTime, endTime) for one minibuffer, skipping the NCV PMTs and the
// RWM trigger input. It also reports the number of distinct PMTs that
// contributed at least one pulse.
func (r *RecoReadout) TankCharge(minibuffer int, startTime int64,
	endTime int64) (charge float64, uniquePMTs int) {

	for card, channelMap := range r.pulses {
		for channel, minibufferMap := range channelMap {
			if isExcludedFromTankCharge(card, channel) {
				continue
			}
			contributed := false
			for _, pulse := range minibufferMap[minibuffer] {
				if pulse.StartTime() >= startTime && pulse.StartTime() < endTime {
					charge += pulse.Charge()
					contributed = true
				}
			}
			if contributed {
				uniquePMTs++
			}
		}
	}
	return charge, uniquePMTs
}

func isExcludedFromTankCharge(card int, channel int) bool {
	switch {
	case card == NCV_PMT1_CARD && channel == NCV_PMT1_CHANNEL:
		return true
	case card == NCV_PMT2_CARD && channel == NCV_PMT2_CHANNEL:
		return true
	case card == RWM_CARD && channel == RWM_CHANNEL:
		return true
	}
	return false
}
