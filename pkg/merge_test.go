package reco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func timingRecord(sequenceID int) *HeftyRecord {
	return &HeftyRecord{SequenceID: sequenceID}
}

func TestMergeStreamsVisitsAscendingSequenceIDs(t *testing.T) {
	// Physical storage order deliberately scrambled
	readouts := ReadoutChunk{NewRecoReadout(7), NewRecoReadout(3), NewRecoReadout(5)}
	timing := TimingChunk{timingRecord(7), timingRecord(3), timingRecord(5)}

	var visited []int
	err := MergeStreams([]ReadoutSource{readouts}, []TimingSource{timing},
		func(readout *RecoReadout, record *HeftyRecord) error {
			require.Equal(t, readout.SequenceID(), record.SequenceID)
			visited = append(visited, record.SequenceID)
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, []int{3, 5, 7}, visited)
}

func TestMergeStreamsDuplicateSequenceID(t *testing.T) {
	readouts := ReadoutChunk{NewRecoReadout(3), NewRecoReadout(3)}
	timing := TimingChunk{timingRecord(3), timingRecord(3)}

	err := MergeStreams([]ReadoutSource{readouts}, []TimingSource{timing},
		func(*RecoReadout, *HeftyRecord) error { return nil })

	var duplicate *ErrDuplicateSequenceID
	require.ErrorAs(t, err, &duplicate)
	require.Equal(t, 3, duplicate.SequenceID)
}

func TestMergeStreamsLengthMismatch(t *testing.T) {
	readouts := ReadoutChunk{NewRecoReadout(1), NewRecoReadout(2)}
	timing := TimingChunk{timingRecord(1)}

	err := MergeStreams([]ReadoutSource{readouts}, []TimingSource{timing},
		func(*RecoReadout, *HeftyRecord) error { return nil })

	var mismatch *ErrStreamLengthMismatch
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 2, mismatch.ReadoutEntries)
	require.Equal(t, 1, mismatch.TimingEntries)

	// Mismatched chunk counts are also fatal
	err = MergeStreams([]ReadoutSource{readouts}, nil,
		func(*RecoReadout, *HeftyRecord) error { return nil })
	require.ErrorAs(t, err, &mismatch)
}

func TestMergeStreamsSequenceIDMismatch(t *testing.T) {
	// Same id sets, but the joined rows disagree: the streams were built
	// from different runs
	readouts := ReadoutChunk{NewRecoReadout(2), NewRecoReadout(1)}
	timing := TimingChunk{timingRecord(1), timingRecord(2)}

	err := MergeStreams([]ReadoutSource{readouts}, []TimingSource{timing},
		func(*RecoReadout, *HeftyRecord) error { return nil })

	var mismatch *ErrSequenceIDMismatch
	require.ErrorAs(t, err, &mismatch)
}
