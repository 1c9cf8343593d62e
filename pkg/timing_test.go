package reco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinibufferLabels(t *testing.T) {
	require.Equal(t, "beam", BeamLabel.String())
	require.Equal(t, "source", SourceLabel.String())
	require.Equal(t, "unknown", UnknownLabel.String())
	require.Equal(t, "unknown", MinibufferLabel(42).String())

	require.True(t, IsBackgroundMinibuffer(SoftwareLabel))
	require.True(t, IsBackgroundMinibuffer(PeriodicLabel))
	require.True(t, IsBackgroundMinibuffer(MinRateLabel))
	require.False(t, IsBackgroundMinibuffer(BeamLabel))
	require.False(t, IsBackgroundMinibuffer(SourceLabel))
	require.False(t, IsBackgroundMinibuffer(NCVLabel))
}

func TestBeamClockEventTime(t *testing.T) {
	record := &HeftyRecord{SequenceID: 12}
	record.Labels[0] = BeamLabel
	record.Time[0] = 1000000
	record.Labels[1] = NCVLabel
	record.Time[1] = 1002050

	clock := NewBeamClock(false)
	clock.StartReadout()
	require.False(t, clock.Known())

	clock.Observe(record, 0)
	require.True(t, clock.Known())
	require.Equal(t, uint64(1000000), clock.LastBeamTime())

	clock.Observe(record, 1)
	require.Equal(t, uint64(1000000), clock.LastBeamTime())

	// A pulse 50 ns into a self-trigger minibuffer recorded 2050 ns
	// after the beam spill occurred 2100 ns after the spill
	eventTime, err := clock.EventTime(50, record, 1)
	require.NoError(t, err)
	require.InDelta(t, 2100., eventTime, 1e-12)
}

func TestBeamClockSourceMinibuffersAreTrusted(t *testing.T) {
	record := &HeftyRecord{SequenceID: 9}
	record.Labels[2] = SourceLabel
	record.Time[2] = 0 // no timestamp recorded for source triggers

	clock := NewBeamClock(false)
	eventTime, err := clock.EventTime(700, record, 2)
	require.NoError(t, err)
	require.InDelta(t, 700., eventTime, 1e-12)
}

func TestBeamClockInvalidTimestamp(t *testing.T) {
	record := &HeftyRecord{SequenceID: 5}
	record.Labels[0] = BeamLabel
	record.Time[0] = 2000000
	record.Labels[1] = NCVLabel
	record.Time[1] = 1500000 // clock ran backwards

	clock := NewBeamClock(false)
	clock.Observe(record, 0)

	_, err := clock.EventTime(10, record, 1)
	var invalid *ErrInvalidTimestamp
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, 5, invalid.SequenceID)
	require.Equal(t, 1, invalid.Minibuffer)
}

func TestBeamClockResetPolicy(t *testing.T) {
	record := &HeftyRecord{SequenceID: 1}
	record.Labels[0] = BeamLabel
	record.Time[0] = 1000000

	persistent := NewBeamClock(false)
	persistent.StartReadout()
	persistent.Observe(record, 0)
	persistent.StartReadout()
	require.True(t, persistent.Known())

	perReadout := NewBeamClock(true)
	perReadout.StartReadout()
	perReadout.Observe(record, 0)
	perReadout.StartReadout()
	require.False(t, perReadout.Known())
}
