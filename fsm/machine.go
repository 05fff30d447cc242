// Package fsm provides a small finite state machine with an explicit
// transition table and optional bounded history.
package fsm

import (
	"fmt"
	"slices"
)

// DefaultHistorySize bounds the transition history ring buffer.
const DefaultHistorySize = 100

// Transition records one state change for diagnostics.
type Transition[S comparable] struct {
	From   S
	To     S
	Tick   int64
	Reason string
	Forced bool // set when the change bypassed the transition table
}

// TransitionError is returned when a requested transition is not in the table.
type TransitionError[S comparable] struct {
	From   S
	Target S
	Valid  []S
}

func (e *TransitionError[S]) Error() string {
	return fmt.Sprintf("invalid transition %v -> %v (valid targets: %v)", e.From, e.Target, e.Valid)
}

// Machine is a finite state machine over an enumerable state type.
// Transitions are validated against an explicit table; history is a
// bounded ring buffer and is diagnostic only.
type Machine[S comparable] struct {
	current S
	table   map[S][]S

	historyOn bool
	history   []Transition[S]
	head      int // next write position
	count     int
}

// New creates a machine in the given initial state. The table maps each
// state to its valid targets; states absent from the table are terminal.
func New[S comparable](initial S, table map[S][]S, historyEnabled bool) *Machine[S] {
	m := &Machine[S]{
		current:   initial,
		table:     table,
		historyOn: historyEnabled,
	}
	if historyEnabled {
		m.history = make([]Transition[S], DefaultHistorySize)
	}
	return m
}

// Current returns the current state.
func (m *Machine[S]) Current() S {
	return m.current
}

// ValidTargets returns the states reachable from the current state.
func (m *Machine[S]) ValidTargets() []S {
	return slices.Clone(m.table[m.current])
}

// CanTransition reports whether the table permits a move to target.
func (m *Machine[S]) CanTransition(target S) bool {
	return slices.Contains(m.table[m.current], target)
}

// TryTransition moves to target if the table permits it. On failure the
// machine is left untouched and the error names the valid targets.
func (m *Machine[S]) TryTransition(target S, tick int64, reason string) (S, error) {
	if !m.CanTransition(target) {
		return m.current, &TransitionError[S]{
			From:   m.current,
			Target: target,
			Valid:  m.ValidTargets(),
		}
	}
	m.record(Transition[S]{From: m.current, To: target, Tick: tick, Reason: reason})
	m.current = target
	return m.current, nil
}

// MustTransition is like TryTransition but panics on an invalid move.
// Reserved for call sites where an invalid transition is a programming
// error, never for data-driven transitions.
func (m *Machine[S]) MustTransition(target S, tick int64, reason string) S {
	s, err := m.TryTransition(target, tick, reason)
	if err != nil {
		panic(err)
	}
	return s
}

// ForceState sets the state unconditionally, bypassing the table.
// Intended for deserialization and tests; the history entry is tagged
// as forced so audits can tell it apart from table transitions.
func (m *Machine[S]) ForceState(state S, tick int64, reason string) {
	m.record(Transition[S]{From: m.current, To: state, Tick: tick, Reason: reason, Forced: true})
	m.current = state
}

// History returns recorded transitions, oldest first. Nil when history
// is disabled.
func (m *Machine[S]) History() []Transition[S] {
	if !m.historyOn || m.count == 0 {
		return nil
	}
	out := make([]Transition[S], 0, m.count)
	start := m.head - m.count
	if start < 0 {
		start += len(m.history)
	}
	for i := 0; i < m.count; i++ {
		out = append(out, m.history[(start+i)%len(m.history)])
	}
	return out
}

func (m *Machine[S]) record(t Transition[S]) {
	if !m.historyOn {
		return
	}
	m.history[m.head] = t
	m.head = (m.head + 1) % len(m.history)
	if m.count < len(m.history) {
		m.count++
	}
}
