package reco

import (
	"fmt"
	"os"
	"sync"
)

type ReconstructResult struct {
	Readout *RecoReadout
	Err     error
}

func reconstructWorker(id int, jobs <-chan *RawReadout, results chan<- ReconstructResult,
	threshold float64, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			results <- ReconstructResult{Err: fmt.Errorf("worker %d panicked: %v", id, r)}
		}
	}()

	for raw := range jobs {
		reconstructed, err := ReconstructReadout(raw, threshold)
		if err != nil {
			results <- ReconstructResult{Err: fmt.Errorf("worker %d: readout %d: %w",
				id, raw.SequenceID(), err)}
			continue
		}
		results <- ReconstructResult{Readout: reconstructed}
	}
}

// sendReadoutsToWorkers feeds raw readouts to the pool and reports exactly
// one value on readErr: the reader error that stopped it, or nil.
func sendReadoutsToWorkers(reader *RawReader, jobs chan<- *RawReadout,
	readErr chan<- error, skip int, maxEvents int) {

	defer close(jobs)
	sent := 0
	for {
		raw, err := reader.Next()
		if err != nil {
			readErr <- err
			return
		}
		if raw == nil {
			break
		}
		if skip > 0 {
			skip--
			continue
		}
		jobs <- raw
		sent++
		if maxEvents > 0 && sent >= maxEvents {
			break
		}
	}
	readErr <- nil
}

// ReconstructFile runs the pulse reconstruction of every readout in the
// file over a pool of workers sized by the configuration. Corrupted input
// is fatal: the first reader or reconstruction error aborts the run.
func ReconstructFile(filename string) (ReadoutChunk, error) {
	configuration := GetConfiguration()

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := NewRawReader(file)

	numWorkers := configuration.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan *RawReadout, numWorkers)
	results := make(chan ReconstructResult, numWorkers)
	readErr := make(chan error, 1)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go reconstructWorker(w, jobs, results, configuration.PulseThreshold, &wg)
	}
	go sendReadoutsToWorkers(reader, jobs, readErr, configuration.Skip,
		configuration.MaxEvents)
	go func() {
		wg.Wait()
		close(results)
	}()

	// Drain the pool completely before reporting so no worker blocks on
	// a full results channel.
	var chunk ReadoutChunk
	var firstErr error
	for result := range results {
		if result.Err != nil {
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}
		chunk = append(chunk, result.Readout)
	}
	if err := <-readErr; err != nil && firstErr == nil {
		firstErr = fmt.Errorf("error reading %s: %w", filename, err)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	logInfo(fmt.Sprintf("Reconstructed %d readouts from %s", len(chunk), filename), "workers")
	return chunk, nil
}
