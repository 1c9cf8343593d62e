package reco

import "strconv"

// RawCard holds the raw data read out by a single DAQ VME card: one shared
// sample buffer multiplexed over all of its channels, plus per-minibuffer
// trigger counters and per-channel rates.
type RawCard struct {
	cardID        int
	lastSync      uint64
	startTimeSec  int
	startTimeNSec int
	startCount    uint64
	triggerCounts []uint64
	channels      map[int]RawChannel
}

func NewRawCard(cardID int, lastSync uint64, startTimeSec int, startTimeNSec int,
	startCount uint64, channels int, bufferSize int, minibufferSize int,
	data []int16, triggerCounts []uint64, rates []uint32) (*RawCard, error) {

	if bufferSize <= 0 || channels != len(data)/bufferSize {
		return nil, &ErrMalformedBuffer{
			CardID: cardID,
			Reason: "mismatch between number of channels and channel buffer size",
		}
	}

	if minibufferSize <= 0 || len(triggerCounts) != bufferSize/minibufferSize {
		return nil, &ErrMalformedBuffer{
			CardID: cardID,
			Reason: "mismatch between number of minibuffers and minibuffer size",
		}
	}

	if len(rates) < channels {
		return nil, &ErrMalformedBuffer{
			CardID: cardID,
			Reason: "missing channel rates",
		}
	}

	card := &RawCard{
		cardID:        cardID,
		lastSync:      lastSync,
		startTimeSec:  startTimeSec,
		startTimeNSec: startTimeNSec,
		startCount:    startCount,
		triggerCounts: append([]uint64(nil), triggerCounts...),
		channels:      make(map[int]RawChannel),
	}

	for c := 0; c < channels; c++ {
		if err := card.addChannel(c, data, bufferSize, rates[c], false); err != nil {
			return nil, err
		}
	}
	return card, nil
}

// addChannel demultiplexes one channel out of the shared card buffer.
// Each channel owns a contiguous region of the card buffer, written as two
// half-length blocks; the halves are concatenated to rebuild the logical
// waveform, so the channels partition the buffer with no gaps or overlaps.
func (card *RawCard) addChannel(channelNumber int, fullBufferData []int16,
	channelBufferSize int, rate uint32, overwriteOK bool) error {

	if _, present := card.channels[channelNumber]; present {
		if !overwriteOK {
			return &ErrDuplicateChannel{CardID: card.cardID, Channel: channelNumber}
		}
		delete(card.channels, channelNumber)
	}

	half := channelBufferSize / 2
	firstStart := channelNumber * channelBufferSize
	secondStart := firstStart + half

	if firstStart+half > len(fullBufferData) || secondStart+half > len(fullBufferData) {
		return &ErrMalformedBuffer{
			CardID: card.cardID,
			Reason: "missing data for channel " + strconv.Itoa(channelNumber),
		}
	}

	data := make([]int16, 0, channelBufferSize)
	data = append(data, fullBufferData[firstStart:firstStart+half]...)
	data = append(data, fullBufferData[secondStart:secondStart+half]...)

	card.channels[channelNumber] = NewRawChannel(channelNumber, data, rate,
		len(card.triggerCounts))
	return nil
}

func (card *RawCard) CardID() int { return card.cardID }

func (card *RawCard) LastSync() uint64 { return card.lastSync }

func (card *RawCard) StartTimeSec() int { return card.startTimeSec }

func (card *RawCard) StartTimeNSec() int { return card.startTimeNSec }

func (card *RawCard) StartCount() uint64 { return card.startCount }

func (card *RawCard) TriggerCounts() []uint64 { return card.triggerCounts }

func (card *RawCard) NumMinibuffers() int { return len(card.triggerCounts) }

// TriggerTime approximates the trigger time for the given minibuffer in
// ns since the Unix epoch, combining the card start time with the elapsed
// ticks of the 125 MHz DAQ clock.
func (card *RawCard) TriggerTime(minibuffer int) (uint64, error) {
	if minibuffer < 0 || minibuffer >= len(card.triggerCounts) {
		return 0, &ErrMalformedBuffer{
			CardID: card.cardID,
			Reason: "trigger time requested for missing minibuffer " +
				strconv.Itoa(minibuffer),
		}
	}
	ns := uint64(card.startTimeSec)*1000000000 + uint64(card.startTimeNSec)
	ns += (card.triggerCounts[minibuffer] - card.startCount) * NS_PER_CLOCK_TICK
	return ns, nil
}

func (card *RawCard) Channels() map[int]RawChannel { return card.channels }

func (card *RawCard) Channel(index int) (RawChannel, bool) {
	ch, ok := card.channels[index]
	return ch, ok
}
