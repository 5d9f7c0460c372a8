package registry

import (
	"context"
	"sync"

	"github.com/jmehdipour/micromdm-webhook/internal/model"
)

// Memory is a process-lifetime registry. Records are never removed.
type Memory struct {
	mu      sync.RWMutex
	devices map[string]model.Device
}

func NewMemory() *Memory {
	return &Memory{
		devices: make(map[string]model.Device),
	}
}

func (m *Memory) Upsert(_ context.Context, udid string, enrolled bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.devices[udid]
	m.devices[udid] = model.Device{UDID: udid, Enrolled: enrolled}
	return !exists, nil
}

func (m *Memory) Get(_ context.Context, udid string) (model.Device, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[udid]
	return d, ok, nil
}

// Len reports the number of tracked devices.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices)
}
