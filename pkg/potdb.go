package reco

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

// Device name of the toroid used to measure protons-on-target
const POT_DEVICE string = "E:TOR875"

func ConnectToDatabase(user string, password string, host string, database string) (*sqlx.DB, error) {
	dbURI := fmt.Sprintf("%s:%s@(%s:3306)/%s?parseTime=true", user, password, host, database)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type potRow struct {
	UnixMs uint64  `db:"unix_ms"`
	Value  float64 `db:"value"`
}

// TotalPOTForRun returns the total protons-on-target delivered during one
// run, summed over the toroid readings recorded in the beam database.
func TotalPOTForRun(db *sqlx.DB, runNumber int) (float64, error) {
	query := `SELECT COALESCE(SUM(value), 0) FROM BeamData
		WHERE device = ? AND run = ?`
	var total float64
	err := db.Get(&total, query, POT_DEVICE, runNumber)
	if err != nil {
		return 0, fmt.Errorf("error querying POT for run %d: %w", runNumber, err)
	}
	return total, nil
}

// POTBetween sums the toroid readings with timestamps inside
// [startMs, endMs) (ms since the Unix epoch). Used to assign POT to
// individual readouts.
func POTBetween(db *sqlx.DB, startMs uint64, endMs uint64) (float64, error) {
	query := `SELECT unix_ms, value FROM BeamData
		WHERE device = ? AND unix_ms >= ? AND unix_ms < ?`
	rows, err := db.Queryx(query, POT_DEVICE, startMs, endMs)
	if err != nil {
		return 0, fmt.Errorf("error querying POT between %d and %d: %w",
			startMs, endMs, err)
	}
	defer rows.Close()

	total := 0.
	for rows.Next() {
		var row potRow
		if err := rows.StructScan(&row); err != nil {
			return 0, fmt.Errorf("error scanning POT row: %w", err)
		}
		total += row.Value
	}
	return total, rows.Err()
}

// BeamStatus is the toroid reading matched to one minibuffer trigger.
// OK is false when no reading close enough in time could be found.
type BeamStatus struct {
	UnixMs uint64
	POT    float64
	OK     bool
}

// Half-width of the time window searched when matching a trigger to a
// toroid reading
const BEAM_QUERY_WINDOW uint64 = 5000 // ms

// NearestPOT returns the toroid reading closest in time to the given
// timestamp (ms since the Unix epoch), searching up to five seconds on
// either side.
func NearestPOT(db *sqlx.DB, msSinceEpoch uint64) (BeamStatus, error) {
	query := `SELECT unix_ms, value FROM BeamData
		WHERE device = ? AND unix_ms >= ? AND unix_ms < ?
		ORDER BY unix_ms`
	startMs := uint64(0)
	if msSinceEpoch > BEAM_QUERY_WINDOW {
		startMs = msSinceEpoch - BEAM_QUERY_WINDOW
	}
	rows, err := db.Queryx(query, POT_DEVICE, startMs, msSinceEpoch+BEAM_QUERY_WINDOW)
	if err != nil {
		return BeamStatus{}, fmt.Errorf("error querying POT near %d: %w",
			msSinceEpoch, err)
	}
	defer rows.Close()

	status := BeamStatus{}
	bestDelta := uint64(0)
	for rows.Next() {
		var row potRow
		if err := rows.StructScan(&row); err != nil {
			return BeamStatus{}, fmt.Errorf("error scanning POT row: %w", err)
		}
		delta := row.UnixMs - msSinceEpoch
		if row.UnixMs < msSinceEpoch {
			delta = msSinceEpoch - row.UnixMs
		}
		if !status.OK || delta < bestDelta {
			status = BeamStatus{UnixMs: row.UnixMs, POT: row.Value, OK: true}
			bestDelta = delta
		}
	}
	return status, rows.Err()
}
