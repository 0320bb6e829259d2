// Package surprise hides catalog items behind a gift cover until a date.
// A PIN set on the record lets the recipient unwrap early.
package surprise

import (
	"time"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/store"
)

// StateVersion is the current on-disk payload version.
const StateVersion = 1

// State is the persisted shape.
type State struct {
	Records map[directory.RelativePath]*catalog.SurpriseRecord `json:"records"`
}

func NewState() State {
	return State{Records: make(map[directory.RelativePath]*catalog.SurpriseRecord)}
}

type Service struct {
	store *store.Store[State]
}

func New(st *store.Store[State]) *Service {
	return &Service{store: st}
}

// Surprise returns the active record for a path. Expired records are
// pruned on read.
func (s *Service) Surprise(path directory.ConfirmedPath) *catalog.SurpriseRecord {
	rel := path.RelativePath()
	var result *catalog.SurpriseRecord
	expired := false
	s.store.View(func(state *State) {
		record, ok := state.Records[rel]
		if !ok {
			return
		}
		if until, err := time.Parse(time.RFC3339, record.Until); err == nil && time.Now().After(until) {
			expired = true
			return
		}
		copied := *record
		result = &copied
	})
	if expired {
		s.Clear(rel)
	}
	return result
}

// Set wraps a path until the given RFC 3339 date.
func (s *Service) Set(rel directory.RelativePath, pin, until string) {
	s.store.Update(func(state *State) {
		state.Records[rel] = &catalog.SurpriseRecord{
			RelativePath: rel,
			Pin:          pin,
			Until:        until,
		}
	})
}

// Clear unwraps a path.
func (s *Service) Clear(rel directory.RelativePath) {
	s.store.Update(func(state *State) {
		delete(state.Records, rel)
	})
}

// Unwrap clears the record when the PIN matches or the date has passed.
func (s *Service) Unwrap(rel directory.RelativePath, pin string) bool {
	allowed := false
	s.store.View(func(state *State) {
		record, ok := state.Records[rel]
		if !ok {
			return
		}
		if record.Pin != "" && record.Pin == pin {
			allowed = true
			return
		}
		if until, err := time.Parse(time.RFC3339, record.Until); err == nil && time.Now().After(until) {
			allowed = true
		}
	})
	if allowed {
		s.Clear(rel)
	}
	return allowed
}
