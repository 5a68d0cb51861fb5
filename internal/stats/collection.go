package stats

import (
	"errors"
	"fmt"

	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
)

var (
	// ErrNoLog is returned when an identifier matches no log.
	ErrNoLog = errors.New("no log matches identifier")
	// ErrStalePlan is returned when a dedup plan is confirmed after the
	// collection changed.
	ErrStalePlan = errors.New("collection changed since dedup was staged")
	// ErrConfirmed is returned when a dedup plan is confirmed twice.
	ErrConfirmed = errors.New("dedup plan already confirmed")
)

// Collection is an in-memory, single-owner set of logs. It is not safe for
// concurrent use.
type Collection struct {
	logs    []model.Log
	version int
}

// NewCollection wraps logs. The slice is copied.
func NewCollection(logs []model.Log) *Collection {
	return &Collection{logs: append([]model.Log(nil), logs...)}
}

// Logs returns a copy of the logs in order.
func (c *Collection) Logs() []model.Log {
	return append([]model.Log(nil), c.logs...)
}

// Len returns the number of logs.
func (c *Collection) Len() int {
	return len(c.logs)
}

// Add appends a log.
func (c *Collection) Add(log model.Log) {
	c.logs = append(c.logs, log)
	c.version++
}

// Reset removes every log.
func (c *Collection) Reset() {
	c.logs = nil
	c.version++
}

// Find returns the log whose id equals identifier, or failing that the first
// log whose string equals identifier.
func (c *Collection) Find(identifier string) (model.Log, bool) {
	for _, log := range c.logs {
		if log.ID == identifier {
			return log, true
		}
	}
	for _, log := range c.logs {
		if log.String == identifier {
			return log, true
		}
	}
	return model.Log{}, false
}

// Remove deletes the log matching identifier.
func (c *Collection) Remove(identifier string) bool {
	target, ok := c.Find(identifier)
	if !ok {
		return false
	}
	for i, log := range c.logs {
		if log.ID == target.ID {
			c.logs = append(c.logs[:i], c.logs[i+1:]...)
			c.version++
			return true
		}
	}
	return false
}

// Scope returns the logs an identifier refers to: every log when identifier
// is empty, otherwise the single matching log.
func (c *Collection) Scope(identifier string) ([]model.Log, error) {
	if identifier == "" {
		return c.Logs(), nil
	}
	log, ok := c.Find(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLog, identifier)
	}
	return []model.Log{log}, nil
}

// Times returns the kept delays of the scoped logs, each log's leading nil
// time removed.
func (c *Collection) Times(identifier string, opts Options) ([]float64, error) {
	logs, err := c.Scope(identifier)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, log := range logs {
		out = append(out, OnlyTimes(log.Keystrokes, opts)...)
	}
	return out, nil
}

// CharTimes maps key labels to mean delays over the scoped logs.
func (c *Collection) CharTimes(oracle *keys.Oracle, identifier string, opts Options) (map[string]float64, error) {
	logs, err := c.Scope(identifier)
	if err != nil {
		return nil, err
	}
	acc := NewCharTimes(oracle, opts)
	for _, log := range logs {
		acc.Add(log.Keystrokes)
	}
	return acc.Means(), nil
}

// DedupPlan is a staged removal of duplicate logs. Nothing changes until
// Confirm is called.
type DedupPlan struct {
	coll      *Collection
	version   int
	keep      []model.Log
	removed   []model.Log
	confirmed bool
}

// NukeDuplicates stages removal of every log whose string repeats an earlier
// log's string. The first occurrence is kept and order is preserved.
func (c *Collection) NukeDuplicates() *DedupPlan {
	seen := make(map[string]struct{}, len(c.logs))
	plan := &DedupPlan{coll: c, version: c.version}
	for _, log := range c.logs {
		if _, dup := seen[log.String]; dup {
			plan.removed = append(plan.removed, log)
			continue
		}
		seen[log.String] = struct{}{}
		plan.keep = append(plan.keep, log)
	}
	return plan
}

// Count returns how many logs the plan removes.
func (p *DedupPlan) Count() int {
	return len(p.removed)
}

// Removed returns the logs the plan removes.
func (p *DedupPlan) Removed() []model.Log {
	return append([]model.Log(nil), p.removed...)
}

// RemovedIDs returns the ids of the logs the plan removes.
func (p *DedupPlan) RemovedIDs() []string {
	ids := make([]string, len(p.removed))
	for i, log := range p.removed {
		ids[i] = log.ID
	}
	return ids
}

// Confirm applies the plan to its collection.
func (p *DedupPlan) Confirm() error {
	if p.confirmed {
		return ErrConfirmed
	}
	if p.coll.version != p.version {
		return ErrStalePlan
	}
	p.confirmed = true
	if len(p.removed) == 0 {
		return nil
	}
	p.coll.logs = p.keep
	p.coll.version++
	return nil
}
