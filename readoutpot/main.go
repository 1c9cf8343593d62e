package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	sqlx "github.com/jmoiron/sqlx"

	reco "github.com/sjgardiner/recoANNIE/pkg"
)

// Card whose clock is used to compute trigger times for each minibuffer
const TRIGGER_TIME_CARD = 4

const MILLION = 1000000

var dbConn *sqlx.DB
var configuration reco.Configuration

var logger Logger

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

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Println("Usage: readoutpot [-config CONFIG_FILE] OUTPUT_FILE RAW_FILE...")
		os.Exit(1)
	}
	outputFilename := flag.Arg(0)
	inputFilenames := flag.Args()[1:]

	var err error
	configuration, err = reco.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	reco.SetConfiguration(configuration)
	reco.SetLogger(logger)

	dbConn, err = reco.ConnectToDatabase(configuration.User,
		configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		message := fmt.Errorf("Error connecting to database: %w", err)
		logger.Error(message.Error())
		return
	}
	defer dbConn.Close()

	writer := reco.NewPOTWriter(outputFilename)
	defer writer.Close()

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)

	readoutEntry := -1
	totalPOT := 0.
	var firstTriggerMs, lastTriggerMs uint64
	for _, filename := range inputFilenames {
		file, err := os.Open(filename)
		if err != nil {
			message := fmt.Errorf("Error opening file %s: %w", filename, err)
			logger.Error(message.Error())
			return
		}

		reader := reco.NewRawReader(file)
		err = processFile(reader, writer, &readoutEntry, &totalPOT,
			&firstTriggerMs, &lastTriggerMs, interrupted)
		file.Close()
		if err != nil {
			logger.Error(err.Error())
			return
		}
	}

	message := fmt.Sprintf("Total POT for %d readouts: %g", readoutEntry+1, totalPOT)
	logger.Info(message, "main")

	// Cross-check: integrated POT delivered over the full trigger span
	if lastTriggerMs > 0 {
		delivered, err := reco.POTBetween(dbConn, firstTriggerMs, lastTriggerMs+1)
		if err != nil {
			logger.Error(err.Error())
			return
		}
		message = fmt.Sprintf("POT delivered between first and last trigger: %g",
			delivered)
		logger.Info(message, "main")
	}
}

func processFile(reader *reco.RawReader, writer *reco.POTWriter,
	readoutEntry *int, totalPOT *float64, firstTriggerMs *uint64,
	lastTriggerMs *uint64, interrupted chan os.Signal) error {

	for {
		select {
		case <-interrupted:
			logger.Info("Interrupted, stopping", "main")
			return nil
		default:
		}

		readout, err := reader.Next()
		if err != nil {
			return fmt.Errorf("error reading readout: %w", err)
		}
		if readout == nil {
			return nil
		}
		*readoutEntry++

		message := fmt.Sprintf("Retrieved raw readout entry %d", *readoutEntry)
		logger.Info(message, "main")

		card, ok := readout.Card(TRIGGER_TIME_CARD)
		if !ok {
			message := fmt.Sprintf("readout %d has no card %d, skipping",
				readout.SequenceID(), TRIGGER_TIME_CARD)
			logger.Error(message)
			continue
		}

		for mb := 0; mb < card.NumMinibuffers(); mb++ {
			triggerNs, err := card.TriggerTime(mb)
			if err != nil {
				return err
			}
			triggerMs := triggerNs / MILLION
			if *firstTriggerMs == 0 || triggerMs < *firstTriggerMs {
				*firstTriggerMs = triggerMs
			}
			if triggerMs > *lastTriggerMs {
				*lastTriggerMs = triggerMs
			}

			status, err := reco.NearestPOT(dbConn, triggerMs)
			if err != nil {
				return err
			}
			if !status.OK {
				message := fmt.Sprintf("WARNING: beam database has no information"+
					" for %d ms after the Unix epoch", triggerMs)
				logger.Error(message)
			}

			if status.OK {
				*totalPOT += status.POT
			}
			writer.WriteBeamStatus(*readoutEntry, mb, triggerMs, status)
		}
	}
}
