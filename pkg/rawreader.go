package reco

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unsafe"
)

// ReadoutRecordHeader is the fixed-size part of one row of the raw
// waveform stream: the data for a single VME card within one readout.
// Rows belonging to the same readout share a SequenceID and are stored
// consecutively. The header is followed by FullBufferSize samples
// (int16), TriggerNumber trigger counters (uint64) and Channels rates
// (uint32), all little-endian.
type ReadoutRecordHeader struct {
	SequenceID     int32
	CardID         int32
	LastSync       uint64
	StartTimeSec   int32
	StartTimeNSec  int32
	StartCount     uint64
	Channels       int32
	BufferSize     int32
	EventSize      int32
	FullBufferSize int32
	TriggerNumber  int32
}

// RawReader reads raw data files and assembles RawReadout objects, one
// per DAQ readout.
type RawReader struct {
	file           *os.File
	lastSequenceID int
	pending        *ReadoutRecordHeader
	pendingData    []int16
	pendingCounts  []uint64
	pendingRates   []uint32
}

func NewRawReader(file *os.File) *RawReader {
	return &RawReader{file: file, lastSequenceID: BOGUS_INT}
}

func (r *RawReader) readRecord() (*ReadoutRecordHeader, []int16, []uint64, []uint32, error) {
	var header ReadoutRecordHeader
	headerSize := unsafe.Sizeof(header)
	headerBinary := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBinary); err != nil {
		return nil, nil, nil, nil, err
	}

	headerReader := bytes.NewReader(headerBinary)
	if err := binary.Read(headerReader, binary.LittleEndian, &header); err != nil {
		return nil, nil, nil, nil, err
	}

	if header.FullBufferSize < 0 || header.TriggerNumber < 0 || header.Channels < 0 {
		return nil, nil, nil, nil, &ErrMalformedBuffer{
			CardID: int(header.CardID),
			Reason: "negative variable-length array size in record header",
		}
	}

	data := make([]int16, header.FullBufferSize)
	if err := binary.Read(r.file, binary.LittleEndian, &data); err != nil {
		return nil, nil, nil, nil, err
	}
	counts := make([]uint64, header.TriggerNumber)
	if err := binary.Read(r.file, binary.LittleEndian, &counts); err != nil {
		return nil, nil, nil, nil, err
	}
	rates := make([]uint32, header.Channels)
	if err := binary.Read(r.file, binary.LittleEndian, &rates); err != nil {
		return nil, nil, nil, nil, err
	}

	return &header, data, counts, rates, nil
}

// Next assembles the next full readout by grouping consecutive records
// that share a SequenceID. It returns nil with no error at end of file;
// a readout truncated by an unexpected EOF is still returned.
func (r *RawReader) Next() (*RawReadout, error) {
	var readout *RawReadout

	for {
		header := r.pending
		data, counts, rates := r.pendingData, r.pendingCounts, r.pendingRates

		if header == nil {
			var err error
			header, data, counts, rates, err = r.readRecord()
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				r.pending = nil
				return readout, nil
			}
			if err != nil {
				return nil, err
			}
		}

		if readout == nil {
			readout = NewRawReadout(int(header.SequenceID))
		} else if int(header.SequenceID) != readout.SequenceID() {
			// A new SequenceID means the current readout is complete.
			// Keep the record for the next call.
			r.pending = header
			r.pendingData, r.pendingCounts, r.pendingRates = data, counts, rates
			r.lastSequenceID = readout.SequenceID()
			return readout, nil
		}

		r.pending = nil
		minibufferSize := int(header.EventSize) * EVENT_SIZE_TO_MINIBUFFER_SIZE
		err := readout.AddCard(int(header.CardID), header.LastSync,
			int(header.StartTimeSec), int(header.StartTimeNSec), header.StartCount,
			int(header.Channels), int(header.BufferSize), minibufferSize,
			data, counts, rates, false)
		if err != nil {
			return nil, err
		}
	}
}

// heftyRecordStruct is the packed on-disk layout of one Hefty timing row.
type heftyRecordStruct struct {
	SequenceID int32
	Labels     [NUM_HEFTY_MINIBUFFERS]int32
	TSinceBeam [NUM_HEFTY_MINIBUFFERS]int32
	More       [NUM_HEFTY_MINIBUFFERS]int32
	Time       [NUM_HEFTY_MINIBUFFERS]uint64
}

// ReadHeftyFile loads one chunk of the Hefty timing stream.
func ReadHeftyFile(filename string) (TimingChunk, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening timing file %q: %w", filename, err)
	}
	defer file.Close()

	var chunk TimingChunk
	for {
		var raw heftyRecordStruct
		err := binary.Read(file, binary.LittleEndian, &raw)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading timing file %q: %w", filename, err)
		}

		record := &HeftyRecord{SequenceID: int(raw.SequenceID)}
		for m := 0; m < NUM_HEFTY_MINIBUFFERS; m++ {
			record.Labels[m] = MinibufferLabel(raw.Labels[m])
			record.TSinceBeam[m] = raw.TSinceBeam[m]
			record.More[m] = raw.More[m]
			record.Time[m] = raw.Time[m]
		}
		chunk = append(chunk, record)
	}
	return chunk, nil
}
