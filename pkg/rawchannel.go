package reco

import "fmt"

// RawChannel holds the full readout of raw ADC counts from a single
// channel of one of the DAQ VME cards. The sample slice is logically
// partitioned into numMinibuffers equal-length windows.
type RawChannel struct {
	channelNumber  int
	rate           uint32
	data           []int16
	numMinibuffers int
}

func NewRawChannel(channelNumber int, data []int16, rate uint32, numMinibuffers int) RawChannel {
	stored := make([]int16, len(data))
	copy(stored, data)
	return RawChannel{
		channelNumber:  channelNumber,
		rate:           rate,
		data:           stored,
		numMinibuffers: numMinibuffers,
	}
}

func (c *RawChannel) ChannelNumber() int { return c.channelNumber }

func (c *RawChannel) Rate() uint32 { return c.rate }

// Data returns the raw ADC counts for the whole readout. Callers must not
// modify the returned slice.
func (c *RawChannel) Data() []int16 { return c.data }

func (c *RawChannel) NumMinibuffers() int { return c.numMinibuffers }

// MinibufferData returns the sample window for one minibuffer.
func (c *RawChannel) MinibufferData(minibuffer int) ([]int16, error) {
	if minibuffer < 0 || minibuffer >= c.numMinibuffers {
		return nil, fmt.Errorf("minibuffer index %d out of range [0, %d)",
			minibuffer, c.numMinibuffers)
	}
	mbSize := len(c.data) / c.numMinibuffers
	return c.data[minibuffer*mbSize : (minibuffer+1)*mbSize], nil
}
