package reco

// Sentinel for integer fields that have not been set yet
const BOGUS_INT int = -9999

// Dead time applied after each accepted event
const VETO_TIME float64 = 1e3 // ns

const NUM_HEFTY_MINIBUFFERS int = 40
const HEFTY_MINIBUFFER_TIME float64 = 2e3 // ns

// Time shift applied to the reference capture-time template before fitting
const FREYA_NONHEFTY_TIME_OFFSET float64 = 2e3 // ns
const FREYA_HEFTY_TIME_OFFSET float64 = 0      // ns

// Lower edge of the fit range used for the efficiency template fit
const NONHEFTY_FIT_START_TIME float64 = 2400 // ns
const HEFTY_FIT_START_TIME float64 = 800     // ns

const NUM_TIME_BINS int = 100
const TIME_HIST_MAX float64 = 8e4 // ns

// Tank-wide charge veto
const TANK_CHARGE_WINDOW_LENGTH int64 = 40 // ns
const UNIQUE_WATER_PMT_CUT int = 8         // PMTs
const TANK_CHARGE_CUT float64 = 3.         // nC

// Maximum separation between NCV PMT #1 and #2 pulses considered the
// same physical event
const COINCIDENCE_TOLERANCE int64 = 40 // ns

const NONHEFTY_BACKGROUND_START_TIME float64 = 10 // ns
const NONHEFTY_BACKGROUND_END_TIME float64 = 8000 // ns
const NONHEFTY_SIGNAL_START_TIME float64 = 20000  // ns
const NONHEFTY_SIGNAL_END_TIME float64 = 80000    // ns
const NONHEFTY_BUFFER_TIME float64 = 8e4          // ns

// These times are relative to the start of a beam minibuffer
const HEFTY_BACKGROUND_START_TIME float64 = 10 // ns
const HEFTY_BACKGROUND_END_TIME float64 = 300  // ns
const HEFTY_SIGNAL_START_TIME float64 = 10000  // ns
const HEFTY_SIGNAL_END_TIME float64 = 70000    // ns

// Location of the NCV PMTs and the RWM trigger input in the
// (card, channel) space of the phase I DAQ
const NCV_PMT1_CARD int = 4
const NCV_PMT1_CHANNEL int = 1
const NCV_PMT2_CARD int = 18
const NCV_PMT2_CHANNEL int = 0
const RWM_CARD int = 21
const RWM_CHANNEL int = 2

// Converts the EventSize record field to the minibuffer size in samples
const EVENT_SIZE_TO_MINIBUFFER_SIZE int = 4

// ADC sampling period for the VME cards
const NS_PER_SAMPLE int64 = 2 // ns

// Period of the VME trigger counter clock (125 MHz)
const NS_PER_CLOCK_TICK uint64 = 8 // ns

// Conversion factors used when integrating pulses
const ADC_TO_VOLT float64 = 2.415 / (1 << 12)
const TERMINATION_OHMS float64 = 50.
