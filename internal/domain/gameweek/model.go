package gameweek

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinGameweek     = 1
	MaxGameweek     = 38
	DefaultGameweek = 1
)

var ErrInvalidGameweek = errors.New("invalid gameweek")

type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Source tells how a current gameweek was chosen.
type Source string

const (
	SourceCurrent  Source = "current"
	SourceNext     Source = "next"
	SourceLatest   Source = "latest"
	SourceFallback Source = "default"
)

// Event is one FPL gameweek as published by bootstrap-static.
type Event struct {
	ID           int
	Name         string
	Deadline     time.Time
	IsCurrent    bool
	IsNext       bool
	Finished     bool
	AverageScore int
	HighestScore int
}

func (e Event) Status(now time.Time) Status {
	switch {
	case e.Finished:
		return StatusFinished
	case e.IsCurrent:
		return StatusInProgress
	case !e.Deadline.IsZero() && now.Before(e.Deadline):
		return StatusUpcoming
	case !e.Deadline.IsZero():
		return StatusInProgress
	default:
		return StatusUpcoming
	}
}

// Resolution is the outcome of current-gameweek detection.
type Resolution struct {
	Gameweek int
	Event    Event
	Source   Source
}

func (r Resolution) Detected() bool {
	return r.Source != SourceFallback
}

// ResolveCurrent picks the event flagged current, else the one flagged next,
// else the highest id. With no events it falls back to DefaultGameweek.
func ResolveCurrent(events []Event) Resolution {
	for _, e := range events {
		if e.IsCurrent && e.ID > 0 {
			return Resolution{Gameweek: e.ID, Event: e, Source: SourceCurrent}
		}
	}
	for _, e := range events {
		if e.IsNext && e.ID > 0 {
			return Resolution{Gameweek: e.ID, Event: e, Source: SourceNext}
		}
	}

	latest := Event{}
	for _, e := range events {
		if e.ID > latest.ID {
			latest = e
		}
	}
	if latest.ID > 0 {
		return Resolution{Gameweek: latest.ID, Event: latest, Source: SourceLatest}
	}

	return Resolution{Gameweek: DefaultGameweek, Event: Event{ID: DefaultGameweek}, Source: SourceFallback}
}

// Validate rejects gameweeks outside the season range.
func Validate(gw int) error {
	if gw < MinGameweek || gw > MaxGameweek {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidGameweek, gw, MinGameweek, MaxGameweek)
	}
	return nil
}
