package reco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawCardDemultiplexSingleChannel(t *testing.T) {
	// One channel: the whole buffer belongs to it, so the rebuilt
	// waveform equals the input.
	data := []int16{0, 1, 2, 3, 4, 5, 6, 7}

	card, err := NewRawCard(4, 0, 0, 0, 0, 1, 8, 4, data,
		[]uint64{100, 200}, []uint32{1})
	require.NoError(t, err)

	channel, ok := card.Channel(0)
	require.True(t, ok)
	require.Equal(t, data, channel.Data())
	require.Equal(t, 2, channel.NumMinibuffers())
	require.Equal(t, uint32(1), channel.Rate())

	first, err := channel.MinibufferData(0)
	require.NoError(t, err)
	require.Equal(t, []int16{0, 1, 2, 3}, first)

	second, err := channel.MinibufferData(1)
	require.NoError(t, err)
	require.Equal(t, []int16{4, 5, 6, 7}, second)

	_, err = channel.MinibufferData(2)
	require.Error(t, err)
}

func TestRawCardDemultiplexTwoChannels(t *testing.T) {
	data := make([]int16, 16)
	for i := range data {
		data[i] = int16(i)
	}

	card, err := NewRawCard(4, 0, 0, 0, 0, 2, 8, 8, data,
		[]uint64{100}, []uint32{1, 2})
	require.NoError(t, err)

	ch0, ok := card.Channel(0)
	require.True(t, ok)
	require.Equal(t, []int16{0, 1, 2, 3, 4, 5, 6, 7}, ch0.Data())

	ch1, ok := card.Channel(1)
	require.True(t, ok)
	require.Equal(t, []int16{8, 9, 10, 11, 12, 13, 14, 15}, ch1.Data())
}

func TestRawCardDemultiplexPartitionsBuffer(t *testing.T) {
	// Every sample of the flat card buffer must land in exactly one
	// channel: no gaps, no overlaps.
	data := make([]int16, 32)
	for i := range data {
		data[i] = int16(i)
	}

	card, err := NewRawCard(4, 0, 0, 0, 0, 4, 8, 4, data,
		[]uint64{100, 200}, []uint32{1, 2, 3, 4})
	require.NoError(t, err)

	seen := make(map[int16]int)
	for c := 0; c < 4; c++ {
		channel, ok := card.Channel(c)
		require.True(t, ok)
		require.Len(t, channel.Data(), 8)
		for _, sample := range channel.Data() {
			seen[sample]++
		}
	}
	for _, sample := range data {
		require.Equal(t, 1, seen[sample], "sample %d", sample)
	}
}

func TestRawCardMalformedBuffers(t *testing.T) {
	data := make([]int16, 16)

	var malformed *ErrMalformedBuffer

	// Channel count does not divide the buffer
	_, err := NewRawCard(4, 0, 0, 0, 0, 3, 8, 4, data,
		[]uint64{100, 200}, []uint32{1, 2, 3})
	require.ErrorAs(t, err, &malformed)

	// Wrong number of trigger counters
	_, err = NewRawCard(4, 0, 0, 0, 0, 2, 8, 4, data,
		[]uint64{100}, []uint32{1, 2})
	require.ErrorAs(t, err, &malformed)

	// Missing channel rates
	_, err = NewRawCard(4, 0, 0, 0, 0, 2, 8, 4, data,
		[]uint64{100, 200}, []uint32{1})
	require.ErrorAs(t, err, &malformed)
}

func TestRawCardTriggerTime(t *testing.T) {
	data := make([]int16, 8)

	card, err := NewRawCard(4, 0, 1, 500, 10, 1, 8, 4, data,
		[]uint64{10, 135}, []uint32{1})
	require.NoError(t, err)

	first, err := card.TriggerTime(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1000000500), first)

	// 125 elapsed ticks of the 125 MHz clock = 1000 ns
	second, err := card.TriggerTime(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1000001500), second)

	_, err = card.TriggerTime(2)
	require.Error(t, err)
}

func TestRawReadoutDuplicateCard(t *testing.T) {
	data := make([]int16, 8)

	readout := NewRawReadout(3)
	err := readout.AddCard(4, 0, 0, 0, 0, 1, 8, 4, data,
		[]uint64{100, 200}, []uint32{1}, false)
	require.NoError(t, err)

	err = readout.AddCard(4, 0, 0, 0, 0, 1, 8, 4, data,
		[]uint64{100, 200}, []uint32{1}, false)
	var duplicate *ErrDuplicateCard
	require.ErrorAs(t, err, &duplicate)
	require.Equal(t, 4, duplicate.CardID)

	// Overwrites must be requested explicitly
	err = readout.AddCard(4, 0, 0, 0, 0, 1, 8, 4, data,
		[]uint64{100, 200}, []uint32{1}, true)
	require.NoError(t, err)

	_, ok := readout.Channel(4, 0)
	require.True(t, ok)
	_, ok = readout.Channel(18, 0)
	require.False(t, ok)
}
