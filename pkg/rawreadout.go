package reco

// RawReadout represents a full readout from all of the DAQ VME cards:
// one trigger in non-Hefty mode, or up to 40 minibuffer triggers in Hefty
// mode. Keys of the card map are VME card IDs.
type RawReadout struct {
	sequenceID int
	cards      map[int]*RawCard
}

func NewRawReadout(sequenceID int) *RawReadout {
	return &RawReadout{
		sequenceID: sequenceID,
		cards:      make(map[int]*RawCard),
	}
}

func (r *RawReadout) SequenceID() int { return r.sequenceID }

func (r *RawReadout) SetSequenceID(seqID int) { r.sequenceID = seqID }

func (r *RawReadout) AddCard(cardID int, lastSync uint64, startTimeSec int,
	startTimeNSec int, startCount uint64, channels int, bufferSize int,
	minibufferSize int, data []int16, triggerCounts []uint64, rates []uint32,
	overwriteOK bool) error {

	if _, present := r.cards[cardID]; present && !overwriteOK {
		return &ErrDuplicateCard{CardID: cardID}
	}

	card, err := NewRawCard(cardID, lastSync, startTimeSec, startTimeNSec,
		startCount, channels, bufferSize, minibufferSize, data, triggerCounts, rates)
	if err != nil {
		return err
	}

	r.cards[cardID] = card
	return nil
}

func (r *RawReadout) Cards() map[int]*RawCard { return r.cards }

func (r *RawReadout) Card(index int) (*RawCard, bool) {
	card, ok := r.cards[index]
	return card, ok
}

func (r *RawReadout) Channel(cardIndex int, channelIndex int) (RawChannel, bool) {
	card, ok := r.cards[cardIndex]
	if !ok {
		return RawChannel{}, false
	}
	return card.Channel(channelIndex)
}
