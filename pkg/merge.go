package reco

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ReadoutSource is one chunk of the reconstructed waveform stream:
// random access to RecoReadout entries by physical row index. The
// persistence format behind it is opaque to the analysis.
type ReadoutSource interface {
	NumEntries() int
	Entry(index int) (*RecoReadout, error)
}

// TimingSource is one chunk of the Hefty timing stream.
type TimingSource interface {
	NumEntries() int
	Entry(index int) (*HeftyRecord, error)
}

// ReadoutChunk is an in-memory ReadoutSource.
type ReadoutChunk []*RecoReadout

func (c ReadoutChunk) NumEntries() int { return len(c) }

func (c ReadoutChunk) Entry(index int) (*RecoReadout, error) {
	if index < 0 || index >= len(c) {
		return nil, fmt.Errorf("readout entry %d out of range", index)
	}
	return c[index], nil
}

// TimingChunk is an in-memory TimingSource.
type TimingChunk []*HeftyRecord

func (c TimingChunk) NumEntries() int { return len(c) }

func (c TimingChunk) Entry(index int) (*HeftyRecord, error) {
	if index < 0 || index >= len(c) {
		return nil, fmt.Errorf("timing entry %d out of range", index)
	}
	return c[index], nil
}

// buildSequenceIndex maps each SequenceID in a timing chunk to its
// physical row index with a single linear scan.
func buildSequenceIndex(timing TimingSource) (map[int]int, error) {
	index := make(map[int]int, timing.NumEntries())
	for row := 0; row < timing.NumEntries(); row++ {
		record, err := timing.Entry(row)
		if err != nil {
			return nil, err
		}
		if _, seen := index[record.SequenceID]; seen {
			return nil, &ErrDuplicateSequenceID{SequenceID: record.SequenceID}
		}
		index[record.SequenceID] = row
	}
	return index, nil
}

// MergeStreams joins the reconstructed waveform stream and the Hefty
// timing stream chunk by chunk, visiting SequenceIDs in ascending numeric
// order regardless of physical storage order, and calls fn once per joined
// readout. Chunks are processed in the order given; within each pair the
// entry counts must match and the joined rows must agree on their
// SequenceID.
func MergeStreams(readoutChunks []ReadoutSource, timingChunks []TimingSource,
	fn func(*RecoReadout, *HeftyRecord) error) error {

	if len(readoutChunks) != len(timingChunks) {
		return &ErrStreamLengthMismatch{
			Chunk:          -1,
			ReadoutEntries: len(readoutChunks),
			TimingEntries:  len(timingChunks),
		}
	}

	for c := range timingChunks {
		readouts := readoutChunks[c]
		timing := timingChunks[c]

		if readouts.NumEntries() != timing.NumEntries() {
			return &ErrStreamLengthMismatch{
				Chunk:          c,
				ReadoutEntries: readouts.NumEntries(),
				TimingEntries:  timing.NumEntries(),
			}
		}

		index, err := buildSequenceIndex(timing)
		if err != nil {
			return err
		}

		ids := maps.Keys(index)
		slices.Sort(ids)

		for _, id := range ids {
			row := index[id]
			readout, err := readouts.Entry(row)
			if err != nil {
				return err
			}
			record, err := timing.Entry(row)
			if err != nil {
				return err
			}

			// The two streams were built independently. If a joined row
			// carries two different SequenceIDs they come from different
			// runs.
			if readout.SequenceID() != record.SequenceID {
				return &ErrSequenceIDMismatch{
					ReadoutID: readout.SequenceID(),
					TimingID:  record.SequenceID,
				}
			}

			if err := fn(readout, record); err != nil {
				return err
			}
		}
	}
	return nil
}
