package main

import "time"

// Classifier turns one range sample into an occupancy verdict.  The IR
// detector is read alongside for diagnostics only; it never changes the
// verdict.
type Classifier struct {
	ranger    RangeFinder
	ir        LevelReader
	threshold float64
	logger    *EventLogger
	now       func() time.Time
}

// NewClassifier builds a classifier.  A spot is occupied when the measured
// distance is strictly below threshold.
func NewClassifier(ranger RangeFinder, ir LevelReader, threshold float64, logger *EventLogger) *Classifier {
	return &Classifier{
		ranger:    ranger,
		ir:        ir,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Refresh takes one sample and returns the reading derived from it.
func (c *Classifier) Refresh() Reading {
	distance := c.ranger.Measure()
	r := Reading{
		DistanceCM: distance,
		Occupied:   distance < c.threshold,
		IRLevel:    irLevel(c.ir.Read()),
		At:         c.now(),
	}
	c.logger.Log("Distance: %.2f cm | Occupied: %s | IR Status: %s",
		r.DistanceCM, yesNo(r.Occupied), irText(r.IRLevel))
	return r
}

func irLevel(high bool) int {
	if high {
		return 1
	}
	return 0
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// irText names an active-low IR level.
func irText(level int) string {
	if level == 0 {
		return "DETECTED"
	}
	return "CLEAR"
}
