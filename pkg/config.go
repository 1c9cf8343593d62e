package reco

import (
	"encoding/json"
	"fmt"
	"os"
)

type Configuration struct {
	MaxEvents          int     `json:"max_events"`
	Verbosity          int     `json:"verbosity"`
	Skip               int     `json:"skip"`
	DataDir            string  `json:"data_dir"`
	TimingDir          string  `json:"timing_dir"`
	SourceFile         string  `json:"source_file"`
	TemplateFile       string  `json:"template_file"`
	SoftFile           string  `json:"soft_file"`
	PulseThreshold     float64 `json:"pulse_threshold"`
	ResetBeamTime      bool    `json:"reset_beam_time"`
	SubtractBackground bool    `json:"subtract_background"`
	NoDB               bool    `json:"no_db"`
	Host               string  `json:"host"`
	User               string  `json:"user"`
	Passwd             string  `json:"pass"`
	DBName             string  `json:"dbname"`
	NumWorkers         int     `json:"num_workers"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.Skip = 0
	config.DataDir = "/annie/data/users/gardiner/reco-annie"
	config.TimingDir = "/annie/data/users/gardiner/reco-annie/timing"
	config.PulseThreshold = 5.
	config.ResetBeamTime = false
	config.SubtractBackground = true
	config.NoDB = true
	config.Host = "ifdbprod.fnal.gov"
	config.User = "annie_reader"
	config.Passwd = "readonly"
	config.DBName = "annie_beamdb"
	config.NumWorkers = 1

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Data dir: %s", config.DataDir), "config")
	logger.Info(fmt.Sprintf("Timing dir: %s", config.TimingDir), "config")
	logger.Info(fmt.Sprintf("Source file: %s", config.SourceFile), "config")
	logger.Info(fmt.Sprintf("Template file: %s", config.TemplateFile), "config")
	logger.Info(fmt.Sprintf("Soft file: %s", config.SoftFile), "config")
	logger.Info(fmt.Sprintf("Pulse threshold: %f", config.PulseThreshold), "config")
	logger.Info(fmt.Sprintf("Reset beam time per readout: %t", config.ResetBeamTime), "config")
	logger.Info(fmt.Sprintf("Subtract background: %t", config.SubtractBackground), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
}
