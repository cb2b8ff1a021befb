package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// memBundleStore implements driven.BundleStore in memory.
type memBundleStore struct {
	mu      sync.Mutex
	bundles map[string]*domain.MetadataBundle
	loadErr error
	saveErr error
	saves   int
}

func newMemBundleStore() *memBundleStore {
	return &memBundleStore{bundles: make(map[string]*domain.MetadataBundle)}
}

func (m *memBundleStore) Save(_ context.Context, bundle *domain.MetadataBundle, path string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Deep-copy records so later mutation by the caller is visible only
	// through another Save, like a real file store.
	cp := *bundle
	cp.Records = append([]domain.MemoryRecord(nil), bundle.Records...)
	m.bundles[path] = &cp
	m.saves++
	return nil
}

func (m *memBundleStore) Load(_ context.Context, path string) (*domain.MetadataBundle, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bundle, ok := m.bundles[path]
	if !ok {
		return nil, fmt.Errorf("%w: bundle %s", domain.ErrNotFound, path)
	}
	cp := *bundle
	cp.Records = append([]domain.MemoryRecord(nil), bundle.Records...)
	return &cp, nil
}

// mockFetcher implements driven.Fetcher.
type mockFetcher struct {
	data        []byte
	contentType string
	err         error
	calls       []string
	directFlags []bool
}

func (m *mockFetcher) Fetch(_ context.Context, url string, direct bool) ([]byte, string, error) {
	m.calls = append(m.calls, url)
	m.directFlags = append(m.directFlags, direct)
	if m.err != nil {
		return nil, "", m.err
	}
	return m.data, m.contentType, nil
}

// mockLibrary implements driven.LibraryClient and records calls.
type mockLibrary struct {
	assets    []domain.RemoteAsset
	listErr   error
	updateErr error
	uploadErr error

	updates     map[string]domain.AssetUpdate
	uploads     []string
	uploadTimes map[string]string
	// uploadErrFor fails specific paths by base name.
	uploadErrFor map[string]error
}

func newMockLibrary(assets []domain.RemoteAsset) *mockLibrary {
	return &mockLibrary{
		assets:       assets,
		updates:      make(map[string]domain.AssetUpdate),
		uploadTimes:  make(map[string]string),
		uploadErrFor: make(map[string]error),
	}
}

func (m *mockLibrary) ListAssets(_ context.Context) ([]domain.RemoteAsset, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.assets, nil
}

func (m *mockLibrary) FindAssetByName(_ context.Context, name string) (*domain.RemoteAsset, error) {
	for i := range m.assets {
		if m.assets[i].FileName == name {
			return &m.assets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: asset %s", domain.ErrNotFound, name)
}

func (m *mockLibrary) UpdateAsset(_ context.Context, id string, update domain.AssetUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates[id] = update
	return nil
}

func (m *mockLibrary) UploadAsset(_ context.Context, path string, fileCreatedAt string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if err, ok := m.uploadErrFor[filepath.Base(path)]; ok {
		return err
	}
	m.uploads = append(m.uploads, path)
	m.uploadTimes[filepath.Base(path)] = fileCreatedAt
	return nil
}

// captureSink implements driven.ProgressSink and records events.
type captureSink struct {
	events []driven.ProgressEvent
}

func (s *captureSink) Emit(event driven.ProgressEvent) {
	s.events = append(s.events, event)
}
