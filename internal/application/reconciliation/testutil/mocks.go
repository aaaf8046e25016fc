// Package testutil provides in-memory fakes for testing the reconciliation
// application layer.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/entitleops/licensesync/internal/domain/reconciliation"
)

// MockLicenseSource serves tenants from memory, matching keys by tenant ID
// or case-insensitive name.
type MockLicenseSource struct {
	mu      sync.Mutex
	tenants []*reconciliation.TenantEntitlements
	calls   int

	// Error injection for testing
	fetchError error
}

// NewMockLicenseSource creates a license source holding tenants.
func NewMockLicenseSource(tenants ...*reconciliation.TenantEntitlements) *MockLicenseSource {
	return &MockLicenseSource{tenants: tenants}
}

func (m *MockLicenseSource) FetchTenantEntitlements(ctx context.Context, tenantKey string) (*reconciliation.TenantEntitlements, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.fetchError != nil {
		return nil, m.fetchError
	}
	for _, t := range m.tenants {
		if t.TenantID == tenantKey || strings.EqualFold(t.TenantName, tenantKey) {
			return t, nil
		}
	}
	return nil, nil
}

// SetFetchError makes subsequent fetches fail with err.
func (m *MockLicenseSource) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchError = err
}

// Calls returns the number of fetches made.
func (m *MockLicenseSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockProvisioningSource serves provisioning records from memory by record
// ID or name.
type MockProvisioningSource struct {
	mu         sync.Mutex
	records    []*reconciliation.ProvisioningRecord
	forceFresh []bool
	findError  error
	beforeFind func()
}

// NewMockProvisioningSource creates a provisioning source holding records.
func NewMockProvisioningSource(records ...*reconciliation.ProvisioningRecord) *MockProvisioningSource {
	return &MockProvisioningSource{records: records}
}

func (m *MockProvisioningSource) FindRecord(ctx context.Context, key string, forceFresh bool) (*reconciliation.ProvisioningRecord, error) {
	m.mu.Lock()
	hook := m.beforeFind
	m.forceFresh = append(m.forceFresh, forceFresh)
	findErr := m.findError
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if findErr != nil {
		return nil, findErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.RecordID == key || r.Name == key {
			return r, nil
		}
	}
	return nil, nil
}

// SetFindError makes subsequent lookups fail with err.
func (m *MockProvisioningSource) SetFindError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findError = err
}

// OnFind registers fn to run at the start of every lookup.
func (m *MockProvisioningSource) OnFind(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beforeFind = fn
}

// ForceFreshFlags returns the forceFresh argument of every lookup so far.
func (m *MockProvisioningSource) ForceFreshFlags() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.forceFresh...)
}

// MockRunRepository is an in-memory reconciliation.RunRepository.
type MockRunRepository struct {
	mu     sync.RWMutex
	runs   map[uint]*reconciliation.Run
	nextID uint

	// Error injection for testing
	createError error
}

// NewMockRunRepository creates an empty run repository.
func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{runs: make(map[uint]*reconciliation.Run)}
}

func (m *MockRunRepository) Create(ctx context.Context, run *reconciliation.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	run.SetID(m.nextID)
	m.runs[run.ID()] = run
	return nil
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uint) (*reconciliation.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runs[id], nil
}

func (m *MockRunRepository) List(ctx context.Context, filter reconciliation.RunFilter) ([]*reconciliation.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*reconciliation.Run, 0, len(m.runs))
	for _, r := range m.runs {
		if filter.DocumentID != "" && r.DocumentID() != filter.DocumentID {
			continue
		}
		if filter.TenantKey != "" && r.TenantKey() != filter.TenantKey {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() > out[j].ID() })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// SetCreateError makes subsequent creates fail with err.
func (m *MockRunRepository) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createError = err
}

// Runs returns every stored run, oldest first.
func (m *MockRunRepository) Runs() []*reconciliation.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*reconciliation.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
