package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCache is an in-memory FolderCacheRepository.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.CachedFolder
	lookups int
	inserts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.CachedFolder)}
}

func cacheKey(name string, parentRef *string) string {
	if parentRef == nil {
		return "/" + name
	}
	return *parentRef + "/" + name
}

func (f *fakeCache) Lookup(ctx context.Context, name string, parentRef *string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if e, ok := f.entries[cacheKey(name, parentRef)]; ok && e.Active {
		return e.RemoteID, nil
	}
	return "", fmt.Errorf("cached folder %q: %w", name, domain.ErrNotFound)
}

func (f *fakeCache) Insert(ctx context.Context, name string, parentRef *string, remoteID string) (*models.CachedFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	key := cacheKey(name, parentRef)
	if e, ok := f.entries[key]; ok && e.Active {
		if e.RemoteID == remoteID {
			return &e, nil
		}
		return nil, &domain.CacheDivergenceError{
			Name:      name,
			ParentRef: parentRef,
			CachedID:  e.RemoteID,
			RemoteID:  remoteID,
		}
	}
	entry := models.CachedFolder{
		ID:        fmt.Sprintf("cache-%d", len(f.entries)+1),
		Name:      name,
		ParentRef: parentRef,
		RemoteID:  remoteID,
		Active:    true,
		CreatedAt: time.Now(),
	}
	f.entries[key] = entry
	return &entry, nil
}

func (f *fakeCache) Deactivate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, e := range f.entries {
		if e.ID == id && e.Active {
			e.Active = false
			f.entries[key] = e
			return nil
		}
	}
	return fmt.Errorf("cached folder %s: %w", id, domain.ErrNotFound)
}

// fakeRemote is a scriptable HierarchyProvider that counts calls.
type fakeRemote struct {
	mu          sync.Mutex
	nextID      int
	folders     map[string]string // parentKey/name -> remote id
	parentOf    map[string]string // remote id -> parentKey it was created under
	parentDead  map[string]bool   // refs that fail the existence probe
	sharedRoots map[string]bool
	denyCreate  map[string]bool // parentKeys where creation is denied
	findErr     error           // forced error on every find
	findDelay   time.Duration
	findCalls   int
	createCalls int
	probeCalls  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		folders:     make(map[string]string),
		parentOf:    make(map[string]string),
		parentDead:  make(map[string]bool),
		sharedRoots: make(map[string]bool),
		denyCreate:  make(map[string]bool),
	}
}

func parentKey(parentRef *string) string {
	if parentRef == nil {
		return ""
	}
	return *parentRef
}

func (f *fakeRemote) FindByNameUnderParent(ctx context.Context, name string, parentRef *string) (*models.RemoteFolder, error) {
	f.mu.Lock()
	f.findCalls++
	delay := f.findDelay
	err := f.findErr
	id, ok := f.folders[parentKey(parentRef)+"/"+name]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("folder %q: %w", name, domain.ErrNotFound)
	}
	return &models.RemoteFolder{ID: id, Name: name, IsFolder: true}, nil
}

func (f *fakeRemote) CreateUnderParent(ctx context.Context, name string, parentRef *string) (*models.RemoteFolder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	key := parentKey(parentRef)
	if f.denyCreate[key] {
		return nil, fmt.Errorf("create folder %q: %w", name, domain.ErrPermissionDenied)
	}
	f.nextID++
	id := fmt.Sprintf("remote-%d", f.nextID)
	f.folders[key+"/"+name] = id
	f.parentOf[id] = key
	return &models.RemoteFolder{ID: id, Name: name, IsFolder: true}, nil
}

func (f *fakeRemote) ParentExists(ctx context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return !f.parentDead[ref], nil
}

func (f *fakeRemote) IsKnownSharedRoot(ctx context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sharedRoots[ref], nil
}

func TestEnsurePath_CreatesEachSegmentOnce(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	p := NewFolderProvisioner(cache, remote, discardLogger())
	ctx := context.Background()

	segments := []string{"PrivateLabel", "Acme Corp", "Tax"}

	first, err := p.EnsurePath(ctx, segments, nil)
	if err != nil {
		t.Fatalf("first EnsurePath failed: %v", err)
	}

	second, err := p.EnsurePath(ctx, segments, nil)
	if err != nil {
		t.Fatalf("second EnsurePath failed: %v", err)
	}

	if first != second {
		t.Errorf("expected same final remote id, got %s and %s", first, second)
	}
	if remote.createCalls != 3 {
		t.Errorf("expected exactly 3 creates (one per segment), got %d", remote.createCalls)
	}
}

func TestEnsurePath_ChainsParents(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	p := NewFolderProvisioner(cache, remote, discardLogger())

	finalID, err := p.EnsurePath(context.Background(), []string{"PublicLabel", "Beta LLC", "Audit"}, nil)
	if err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	// Walk back up: Audit under Beta LLC under PublicLabel under root.
	auditParent := remote.parentOf[finalID]
	if auditParent == "" {
		t.Fatal("final segment was created at root, expected it under the client folder")
	}
	clientParent := remote.parentOf[auditParent]
	if clientParent == "" {
		t.Fatal("client segment was created at root, expected it under the root label")
	}
	if rootParent := remote.parentOf[clientParent]; rootParent != "" {
		t.Errorf("root label should be created at hierarchy root, got parent %q", rootParent)
	}
}

func TestEnsurePath_CacheShortCircuit(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	p := NewFolderProvisioner(cache, remote, discardLogger())
	ctx := context.Background()

	segments := []string{"PrivateLabel", "Acme Corp", "Tax"}
	if _, err := p.EnsurePath(ctx, segments, nil); err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	remote.findCalls = 0
	remote.createCalls = 0

	if _, err := p.EnsurePath(ctx, segments, nil); err != nil {
		t.Fatalf("second EnsurePath failed: %v", err)
	}

	if remote.findCalls != 0 || remote.createCalls != 0 {
		t.Errorf("expected zero remote calls on cached path, got %d finds and %d creates",
			remote.findCalls, remote.createCalls)
	}
}

func TestEnsurePath_RecoversExistingRemoteFolder(t *testing.T) {
	// Simulates a crash between remote create and cache write: the folder
	// exists remotely but the cache never heard about it.
	cache := newFakeCache()
	remote := newFakeRemote()
	remote.folders["/Reports"] = "remote-preexisting"
	p := NewFolderProvisioner(cache, remote, discardLogger())

	id, err := p.EnsurePath(context.Background(), []string{"Reports"}, nil)
	if err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	if id != "remote-preexisting" {
		t.Errorf("expected the existing remote folder to win, got %s", id)
	}
	if remote.createCalls != 0 {
		t.Errorf("expected no creates, got %d", remote.createCalls)
	}
	if cache.inserts != 1 {
		t.Errorf("expected the recovered folder to be cached, got %d inserts", cache.inserts)
	}
}

func TestEnsurePath_StaleParentFallsBackToRoot(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	stale := "gone-folder"
	remote.parentDead[stale] = true
	p := NewFolderProvisioner(cache, remote, discardLogger())

	id, err := p.EnsurePath(context.Background(), []string{"PrivateLabel"}, &stale)
	if err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	if got := remote.parentOf[id]; got != "" {
		t.Errorf("expected segment under hierarchy root after fallback, got parent %q", got)
	}
	// The cache must record the effective parent, not the stale one.
	if _, err := cache.Lookup(context.Background(), "PrivateLabel", nil); err != nil {
		t.Errorf("expected cache entry keyed by root parent: %v", err)
	}
}

func TestEnsurePath_SharedRootParentIsKept(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	shared := "shared-drive-1"
	remote.parentDead[shared] = true // fails the ordinary existence probe
	remote.sharedRoots[shared] = true
	p := NewFolderProvisioner(cache, remote, discardLogger())

	id, err := p.EnsurePath(context.Background(), []string{"PrivateLabel"}, &shared)
	if err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	if got := remote.parentOf[id]; got != shared {
		t.Errorf("expected segment under shared root %q, got %q", shared, got)
	}
}

func TestEnsurePath_PermissionDeniedRetriesAtRoot(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	locked := "locked-folder"
	remote.denyCreate[locked] = true
	p := NewFolderProvisioner(cache, remote, discardLogger())

	id, err := p.EnsurePath(context.Background(), []string{"PrivateLabel"}, &locked)
	if err != nil {
		t.Fatalf("EnsurePath failed: %v", err)
	}

	if got := remote.parentOf[id]; got != "" {
		t.Errorf("expected fallback create at hierarchy root, got parent %q", got)
	}
	if remote.createCalls != 2 {
		t.Errorf("expected denied create plus one retry, got %d creates", remote.createCalls)
	}
	// Cached where the folder actually lives.
	if _, err := cache.Lookup(context.Background(), "PrivateLabel", nil); err != nil {
		t.Errorf("expected cache entry keyed by root parent: %v", err)
	}
}

func TestEnsurePath_PermissionDeniedTwiceIsFatal(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	locked := "locked-folder"
	remote.denyCreate[locked] = true
	remote.denyCreate[""] = true // root denied too
	p := NewFolderProvisioner(cache, remote, discardLogger())

	_, err := p.EnsurePath(context.Background(), []string{"PrivateLabel", "Acme Corp"}, &locked)
	if err == nil {
		t.Fatal("expected provisioning failure")
	}

	var provErr *domain.ProvisioningError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProvisioningError, got %T: %v", err, err)
	}
	if provErr.Segment != "PrivateLabel" {
		t.Errorf("expected failure to name segment PrivateLabel, got %q", provErr.Segment)
	}
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected wrapped ErrPermissionDenied, got %v", err)
	}
	if cache.inserts != 0 {
		t.Errorf("expected no cache writes for failed segment, got %d", cache.inserts)
	}
}

func TestEnsurePath_BackendUnavailableSurfacesImmediately(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	remote.findErr = fmt.Errorf("search: %w", domain.ErrBackendUnavailable)
	p := NewFolderProvisioner(cache, remote, discardLogger())

	_, err := p.EnsurePath(context.Background(), []string{"PrivateLabel"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected wrapped ErrBackendUnavailable, got %v", err)
	}
	if remote.createCalls != 0 {
		t.Errorf("expected no create after transient search failure, got %d", remote.createCalls)
	}
	if remote.findCalls != 1 {
		t.Errorf("expected no internal retry, got %d find calls", remote.findCalls)
	}
}

func TestEnsurePath_ConcurrentDuplicateCollapses(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	remote.findDelay = 20 * time.Millisecond
	p := NewFolderProvisioner(cache, remote, discardLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]string, 4)
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.EnsurePath(ctx, []string{"PrivateLabel"}, nil)
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("concurrent EnsurePath %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("concurrent callers disagree on remote id: %s vs %s", results[i], results[0])
		}
	}
	if remote.createCalls != 1 {
		t.Errorf("expected a single remote create across concurrent callers, got %d", remote.createCalls)
	}
}

func TestEnsurePath_RejectsEmptyInput(t *testing.T) {
	p := NewFolderProvisioner(newFakeCache(), newFakeRemote(), discardLogger())

	if _, err := p.EnsurePath(context.Background(), nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty path, got %v", err)
	}
	if _, err := p.EnsurePath(context.Background(), []string{"a", ""}, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty segment, got %v", err)
	}
}

func TestEnsurePath_CancelledBetweenSegments(t *testing.T) {
	cache := newFakeCache()
	remote := newFakeRemote()
	p := NewFolderProvisioner(cache, remote, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.EnsurePath(ctx, []string{"PrivateLabel"}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	// Resuming with a live context succeeds from scratch.
	if _, err := p.EnsurePath(context.Background(), []string{"PrivateLabel"}, nil); err != nil {
		t.Errorf("resume after cancellation failed: %v", err)
	}
}
