package store

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/addrbook/internal/core"
)

// Memory keeps records in process memory. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]core.Address
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[int64]core.Address), now: time.Now}
}

func (m *Memory) FetchAll(ctx context.Context) ([]core.Address, error) {
	m.mu.RLock()
	out := make([]core.Address, 0, len(m.records))
	for _, a := range m.records {
		out = append(out, a)
	}
	m.mu.RUnlock()

	if err := core.SortAddresses(out, core.DefaultOrder...); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id int64) (core.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.records[id]
	if !ok {
		return core.Address{}, core.ErrNotFound
	}
	return a, nil
}

func (m *Memory) Insert(ctx context.Context, rec core.NewAddress) (core.Address, error) {
	if err := ctx.Err(); err != nil {
		return core.Address{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.now().UTC()
	a := core.Address{
		ID:          m.nextID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Street:      rec.Street,
		ApartmentNo: rec.ApartmentNo,
		City:        rec.City,
		PostalCode:  rec.PostalCode,
		Description: rec.Description,
		LabelMarked: rec.LabelMarked,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.records[a.ID] = a
	return a, nil
}

func (m *Memory) Update(ctx context.Context, id int64, patch core.AddressPatch) (core.Address, error) {
	if err := ctx.Err(); err != nil {
		return core.Address{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.records[id]
	if !ok {
		return core.Address{}, core.ErrNotFound
	}
	if patch.IsEmpty() {
		return a, nil
	}
	a = patch.Apply(a)
	a.UpdatedAt = m.now().UTC()
	m.records[id] = a
	return a, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
