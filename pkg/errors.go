package reco

import "fmt"

// ErrMalformedBuffer signals that a raw card buffer does not match its
// declared geometry. Fatal for the current run.
type ErrMalformedBuffer struct {
	CardID int
	Reason string
}

func (e *ErrMalformedBuffer) Error() string {
	return fmt.Sprintf("malformed buffer on card %d: %s", e.CardID, e.Reason)
}

// ErrDuplicateChannel signals an attempt to add an already-present channel
// to a card without the overwrite flag.
type ErrDuplicateChannel struct {
	CardID  int
	Channel int
}

func (e *ErrDuplicateChannel) Error() string {
	return fmt.Sprintf("channel %d already present on card %d", e.Channel, e.CardID)
}

// ErrDuplicateCard signals an attempt to add an already-present card to a
// readout without the overwrite flag.
type ErrDuplicateCard struct {
	CardID int
}

func (e *ErrDuplicateCard) Error() string {
	return fmt.Sprintf("card %d already present in readout", e.CardID)
}

// ErrDuplicateSequenceID signals a repeated SequenceID within one chunk.
// SequenceIDs must be unique within a run, so a repeat means mixed runs.
type ErrDuplicateSequenceID struct {
	SequenceID int
}

func (e *ErrDuplicateSequenceID) Error() string {
	return fmt.Sprintf("duplicate SequenceID value %d encountered", e.SequenceID)
}

// ErrStreamLengthMismatch signals that the waveform and timing streams
// disagree on the number of entries in a chunk.
type ErrStreamLengthMismatch struct {
	Chunk          int
	ReadoutEntries int
	TimingEntries  int
}

func (e *ErrStreamLengthMismatch) Error() string {
	return fmt.Sprintf("entry number mismatch in chunk %d: %d readout entries, %d timing entries",
		e.Chunk, e.ReadoutEntries, e.TimingEntries)
}

// ErrSequenceIDMismatch signals that the joined rows of the two streams
// carry different SequenceIDs, which strongly suggests the streams were
// built from different runs.
type ErrSequenceIDMismatch struct {
	ReadoutID int
	TimingID  int
}

func (e *ErrSequenceIDMismatch) Error() string {
	return fmt.Sprintf("SequenceID mismatch between readout (%d) and timing (%d) streams",
		e.ReadoutID, e.TimingID)
}

// ErrInvalidTimestamp signals a minibuffer timestamp earlier than the last
// beam trigger. The DAQ clock must not run backwards within a run.
type ErrInvalidTimestamp struct {
	SequenceID   int
	Minibuffer   int
	Timestamp    uint64
	LastBeamTime uint64
}

func (e *ErrInvalidTimestamp) Error() string {
	return fmt.Sprintf("invalid minibuffer timestamp in readout %d, minibuffer %d:"+
		" %d precedes last beam time %d", e.SequenceID, e.Minibuffer, e.Timestamp, e.LastBeamTime)
}

// ErrMissingKey signals a pulse lookup with an absent (card, channel,
// minibuffer) key. Indicates a logic error in upstream demultiplexing.
type ErrMissingKey struct {
	Card       int
	Channel    int
	Minibuffer int
}

func (e *ErrMissingKey) Error() string {
	return fmt.Sprintf("no pulses stored for card %d, channel %d, minibuffer %d",
		e.Card, e.Channel, e.Minibuffer)
}
