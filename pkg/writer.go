package reco

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type Writer struct {
	File            *hdf5.File
	Filename        string
	RunGroup        *hdf5.Group
	HistGroup       *hdf5.Group
	FitGroup        *hdf5.Group
	RunInfoTable    *hdf5.Dataset
	RateTable       *hdf5.Dataset
	EfficiencyTable *hdf5.Dataset
	histTables      []*hdf5.Dataset
	runCounter      int
	rateCounter     int
	effCounter      int
}

func NewWriter(filename string) *Writer {
	// Set string size for HDF5
	hdf5.SetStringLength(STRLEN)

	writer := &Writer{}
	fmt.Println("hdf5writer: Creating file: ", filename)
	writer.File = openFile(filename)
	writer.Filename = filename
	writer.RunGroup = createGroup(writer.File, "Run")
	writer.HistGroup = createGroup(writer.File, "Hists")
	writer.FitGroup = createGroup(writer.File, "Fit")
	writer.RunInfoTable = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{})
	writer.RateTable = createTable(writer.FitGroup, "rates", RateHDF5{})
	writer.EfficiencyTable = createTable(writer.FitGroup, "efficiency", EfficiencyHDF5{})
	return writer
}

func (w *Writer) WriteRunInfo(runNumber int, pot float64) {
	writeEntryToTable(w.RunInfoTable, RunInfoHDF5{
		run_number: int32(runNumber),
		pot:        pot,
	}, w.runCounter)
	w.runCounter++
}

// WriteHistogram stores the histogram as two tables under the Hists
// group, one holding the axis definition and one holding the bins.
func (w *Writer) WriteHistogram(hist *Hist1D) {
	info := createTable(w.HistGroup, hist.Name+"_info", HistInfoHDF5{})
	writeEntryToTable(info, HistInfoHDF5{
		nameStr:  convertToHdf5String(hist.Name),
		titleStr: convertToHdf5String(hist.Title),
		xlabel:   convertToHdf5String(hist.XLabel),
		ylabel:   convertToHdf5String(hist.YLabel),
		nbins:    int32(hist.NumBins()),
		xmin:     hist.XMin(),
		xmax:     hist.XMax(),
	}, 0)
	w.histTables = append(w.histTables, info)

	// The array MUST be allocated at creation, if not, HDF5 will panic
	// doing appends will not work
	bins := make([]HistBinHDF5, hist.NumBins())
	for b := 0; b < hist.NumBins(); b++ {
		bins[b] = HistBinHDF5{
			bin:       int32(b),
			low_edge:  hist.BinLowEdge(b),
			content:   hist.BinContent(b),
			bin_error: hist.BinError(b),
		}
	}
	table := createTable(w.HistGroup, hist.Name, HistBinHDF5{})
	writeArrayToTable(table, &bins, 0)
	w.histTables = append(w.histTables, table)
}

func (w *Writer) WriteRate(position int, rate ValueAndError) {
	writeEntryToTable(w.RateTable, RateHDF5{
		position:   int32(position),
		rate:       rate.Value,
		rate_error: rate.Error,
	}, w.rateCounter)
	w.rateCounter++
}

func (w *Writer) WriteEfficiency(fit *TemplateFitResult) {
	writeEntryToTable(w.EfficiencyTable, EfficiencyHDF5{
		p0:   fit.P0,
		p1:   fit.P1,
		chi2: fit.Chi2,
	}, w.effCounter)
	w.effCounter++
}

func (w *Writer) Close() error {
	fmt.Println("Closing file hdf writer ", w.Filename)
	var errs []error

	if err := w.RunInfoTable.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
	}
	if err := w.RateTable.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing rate table: %w", err))
	}
	if err := w.EfficiencyTable.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing efficiency table: %w", err))
	}
	for _, table := range w.histTables {
		if err := table.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing histogram table: %w", err))
		}
	}
	if err := w.RunGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing run group: %w", err))
	}
	if err := w.HistGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing hists group: %w", err))
	}
	if err := w.FitGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing fit group: %w", err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// POTWriter stores per-minibuffer protons-on-target lookups.
type POTWriter struct {
	File        *hdf5.File
	Filename    string
	POTGroup    *hdf5.Group
	StatusTable *hdf5.Dataset
	rowCounter  int
}

func NewPOTWriter(filename string) *POTWriter {
	hdf5.SetStringLength(STRLEN)

	writer := &POTWriter{}
	fmt.Println("hdf5writer: Creating file: ", filename)
	writer.File = openFile(filename)
	writer.Filename = filename
	writer.POTGroup = createGroup(writer.File, "POT")
	writer.StatusTable = createTable(writer.POTGroup, "beamStatus", BeamStatusHDF5{})
	return writer
}

func (w *POTWriter) WriteBeamStatus(readoutEntry int, minibuffer int,
	triggerMs uint64, status BeamStatus) {
	ok := int32(0)
	if status.OK {
		ok = 1
	}
	writeEntryToTable(w.StatusTable, BeamStatusHDF5{
		readout_entry: int32(readoutEntry),
		minibuffer:    int32(minibuffer),
		trigger_ms:    triggerMs,
		pot_ms:        status.UnixMs,
		pot:           status.POT,
		ok:            ok,
	}, w.rowCounter)
	w.rowCounter++
}

func (w *POTWriter) Close() error {
	fmt.Println("Closing file hdf writer ", w.Filename)
	var errs []error

	if err := w.StatusTable.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing beam status table: %w", err))
	}
	if err := w.POTGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing POT group: %w", err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
