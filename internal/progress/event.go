// Package progress defines run progress events and fans them out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart   Stage = "RUN_START"
	StageRecordDone Stage = "RECORD_DONE"
	StageRunDone    Stage = "RUN_DONE"
	StageRunError   Stage = "RUN_ERROR"
)

// Event captures one step of an enrichment run.
type Event struct {
	RunID uuid.UUID
	TS    time.Time
	Stage Stage
	// Index is the zero-based position of the record in the listing.
	Index int
	Total int
	URL   string
	// Failed marks a record that carries an error annotation.
	Failed bool
	Dur    time.Duration
	Note   string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageRecordDone:
		if e.URL == "" {
			return errors.New("record done requires url")
		}
		if e.Index < 0 || e.Index >= e.Total {
			return fmt.Errorf("record index %d out of range [0,%d)", e.Index, e.Total)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
