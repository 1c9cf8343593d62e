package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sqlx "github.com/jmoiron/sqlx"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	reco "github.com/sjgardiner/recoANNIE/pkg"
)

var dbConn *sqlx.DB
var configuration reco.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := reco.NewConsoleHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

// One NCV position dataset. The POT exposure is the fallback value used
// when the beam database is not available. The water thicknesses (inches)
// are the vertical overburden above the NCV and the horizontal shielding
// between the NCV and the beam side of the tank.
type positionData struct {
	Runs       []int
	HeftyMode  bool
	POT        float64
	Overburden float64
	BeamSide   float64
}

var positions = map[int]positionData{
	1: {Runs: []int{650, 653}, HeftyMode: false, POT: 2.676349e18, Overburden: 2.25, BeamSide: 40.8125},
	2: {Runs: []int{798}, HeftyMode: true, POT: 1.42e19, Overburden: 54.25, BeamSide: 40.8125},
	3: {Runs: []int{803}, HeftyMode: true, POT: 1.33e19, Overburden: 54.25, BeamSide: 3.8125},
	4: {Runs: []int{808, 812}, HeftyMode: true, POT: 2.43e19, Overburden: 14.25, BeamSide: 40.8125},
	5: {Runs: []int{813}, HeftyMode: true, POT: 1.34e19, Overburden: 26.25, BeamSide: 40.8125},
	6: {Runs: []int{814}, HeftyMode: true, POT: 6.20e18, Overburden: 8.25, BeamSide: 40.8125},
	7: {Runs: []int{815}, HeftyMode: true, POT: 4.05e18, Overburden: 54.25, BeamSide: 22.8125},
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: crank [-config CONFIG_FILE] OUTPUT_FILE")
		os.Exit(1)
	}
	outputFilename := flag.Arg(0)

	var err error
	configuration, err = reco.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	reco.SetConfiguration(configuration)
	reco.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		reco.PrintConfiguration(configuration, logger)
	}

	if !configuration.NoDB {
		dbConn, err = reco.ConnectToDatabase(configuration.User,
			configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			message := fmt.Errorf("Error connecting to database: %w", err)
			logger.Error(message.Error())
			return
		}
		defer dbConn.Close()
	}

	writer := reco.NewWriter(outputFilename)
	defer writer.Close()

	if configuration.SoftFile != "" {
		if _, err := computeSoftRate(); err != nil {
			logger.Error(err.Error())
			return
		}
	}

	efficiency, err := makeEfficiencyFit(writer)
	if err != nil {
		logger.Error(err.Error())
		return
	}

	rates := make(map[int]reco.ValueAndError)

	posNumbers := maps.Keys(positions)
	slices.Sort(posNumbers)
	for _, pos := range posNumbers {
		rate, err := makeTimingDistribution(pos, positions[pos], writer, efficiency)
		if err != nil {
			logger.Error(err.Error())
			return
		}
		rates[pos] = rate
		writer.WriteRate(pos, rate)
	}

	logger.Info("*** Estimated neutron event rates ***", "main")
	for _, pos := range posNumbers {
		data := positions[pos]
		message := fmt.Sprintf("NCV position #%d: %v neutrons / POT"+
			" (overburden %g in, beam side %g in)",
			pos, rates[pos], data.Overburden, data.BeamSide)
		logger.Info(message, "main")
	}
}

// computeSoftRate estimates the random-in-time pulse rate from software
// trigger data.
func computeSoftRate() (float64, error) {
	logger.Info("Computing background pulse rate using soft data", "main")
	chunk, err := reco.ReconstructFile(configuration.SoftFile)
	if err != nil {
		return 0., fmt.Errorf("error reading soft data: %w", err)
	}
	softRate, err := reco.ComputeSoftRate([]reco.ReadoutSource{chunk})
	if err != nil {
		return 0., err
	}
	message := fmt.Sprintf("Background pulse rate = %g pulses / ns", softRate)
	logger.Info(message, "main")
	return softRate, nil
}

// makeEfficiencyFit estimates a lower bound on the NCV detection
// efficiency by fitting a scaled capture-time template plus a flat
// background to the calibration source data.
func makeEfficiencyFit(writer *reco.Writer) (float64, error) {
	logger.Info("Analyzing position #1 source data", "efficiency")

	sourceChunk, err := reco.ReconstructFile(configuration.SourceFile)
	if err != nil {
		return 0., fmt.Errorf("error reading source data: %w", err)
	}

	totalEntries := sourceChunk.NumEntries()
	if totalEntries == 0 {
		return 0., fmt.Errorf("no readouts found in %s", configuration.SourceFile)
	}

	sourceResult, err := reco.MakeNonHeftyTimingHist(
		[]reco.ReadoutSource{sourceChunk}, 1./float64(totalEntries),
		"nonhefty_pos1_source_data_hist", "Position #1 source data event times")
	if err != nil {
		return 0., err
	}

	captureTimes, err := reco.ReadCaptureTimes(configuration.TemplateFile)
	if err != nil {
		return 0., fmt.Errorf("error reading capture time template: %w", err)
	}
	// The position #1 source data were taken in non-Hefty mode
	const sourceHeftyMode = false
	template := reco.ShiftTemplate(captureTimes, sourceHeftyMode, "freya_hist")

	logger.Info("Fitting simulation + flat background to data", "efficiency")
	fit, err := reco.FitTemplate(sourceResult.Hist, template,
		reco.FitStartTime(sourceHeftyMode), reco.TIME_HIST_MAX)
	if err != nil {
		return 0., err
	}

	message := fmt.Sprintf("Estimate of NCV efficiency = %g", fit.P0)
	logger.Info(message, "efficiency")

	writer.WriteHistogram(sourceResult.Hist)
	writer.WriteHistogram(template)
	writer.WriteHistogram(fit.Curve)
	writer.WriteEfficiency(fit)

	return fit.P0, nil
}

// makeTimingDistribution builds the event time distribution for one NCV
// position and returns the estimated neutron event rate in events / POT.
func makeTimingDistribution(position int, data positionData,
	writer *reco.Writer, efficiency float64) (reco.ValueAndError, error) {

	var rate reco.ValueAndError

	var readoutChunks []reco.ReadoutSource
	var timingChunks []reco.TimingSource
	for _, run := range data.Runs {
		dataFile := filepath.Join(configuration.DataDir, fmt.Sprintf("r%d.dat", run))
		chunk, err := reco.ReconstructFile(dataFile)
		if err != nil {
			return rate, fmt.Errorf("error reading run %d: %w", run, err)
		}
		readoutChunks = append(readoutChunks, chunk)

		if data.HeftyMode {
			timingFile := filepath.Join(configuration.TimingDir,
				fmt.Sprintf("timing_r%d.dat", run))
			timing, err := reco.ReadHeftyFile(timingFile)
			if err != nil {
				return rate, fmt.Errorf("error reading timing for run %d: %w", run, err)
			}
			timingChunks = append(timingChunks, timing)
		}
	}

	pot, err := lookupPOT(data)
	if err != nil {
		return rate, err
	}
	for _, run := range data.Runs {
		writer.WriteRunInfo(run, pot)
	}

	name := fmt.Sprintf("pos_%d_time_hist", position)
	title := fmt.Sprintf("position %d event time distribution", position)
	message := fmt.Sprintf("Creating %s", title)
	logger.Info(message, "main")

	normFactor := 1. / (pot * efficiency)

	var result *reco.TimingResult
	if !data.HeftyMode {
		result, err = reco.MakeNonHeftyTimingHist(readoutChunks, normFactor,
			name, title)
	} else {
		clock := reco.NewBeamClock(configuration.ResetBeamTime)
		result, err = reco.MakeHeftyTimingHist(readoutChunks, timingChunks,
			normFactor, name, title, clock)
	}
	if err != nil {
		return rate, err
	}

	writer.WriteHistogram(result.Hist)

	message = fmt.Sprintf("Raw event rate = %v events / POT", result.RawSignal)
	logger.Info(message, "main")
	message = fmt.Sprintf("Background = %v events / POT", result.Background)
	logger.Info(message, "main")

	return result.NetSignal(configuration.SubtractBackground), nil
}

// lookupPOT sums the POT exposure of the position's runs from the beam
// database, falling back to the recorded values in no-DB mode.
func lookupPOT(data positionData) (float64, error) {
	if configuration.NoDB {
		return data.POT, nil
	}

	total := 0.
	for _, run := range data.Runs {
		pot, err := reco.TotalPOTForRun(dbConn, run)
		if err != nil {
			return 0., fmt.Errorf("error reading POT for run %d: %w", run, err)
		}
		total += pot
	}
	return total, nil
}
