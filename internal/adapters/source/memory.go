package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/timefold/internal/domain/model"
)

// Memory is an in-process Source backed by maps. It is the store used by
// tests and by runs whose rows were loaded up front.
type Memory struct {
	mu      sync.RWMutex
	tables  map[string][]model.Row
	choices map[string][]string
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		tables:  make(map[string][]model.Row),
		choices: make(map[string][]string),
	}
}

// Load replaces the rows held for a table.
func (m *Memory) Load(table string, rows []model.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append([]model.Row(nil), rows...)
}

// SetChoices registers the result of a choice-discovery query.
func (m *Memory) SetChoices(query string, choices []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.choices[query] = append([]string(nil), choices...)
}

// Rows returns a copy of the table's rows.
func (m *Memory) Rows(_ context.Context, req Request) ([]model.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[req.From]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, req.From)
	}
	return append([]model.Row(nil), rows...), nil
}

// Choices returns the registered result for a query.
func (m *Memory) Choices(_ context.Context, query string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	choices, ok := m.choices[query]
	if !ok {
		return nil, fmt.Errorf("%w: no choices registered for %q", ErrQuery, query)
	}
	return append([]string(nil), choices...), nil
}
