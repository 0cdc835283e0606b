package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/rpmspec"
	"github.com/ralt/upgrade-advisor/internal/upstream"
	"github.com/ralt/upgrade-advisor/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*models.ProjectInfo
	flagged map[string]bool
	saves   int
}

func newMemStore(records map[string]*models.ProjectInfo) *memStore {
	return &memStore{records: records, flagged: map[string]bool{}}
}

func (m *memStore) Load(name string) (*models.ProjectInfo, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.records[name]
	if !ok {
		return nil, false, fmt.Errorf("no record for %s", name)
	}
	return info, m.flagged[name], nil
}

func (m *memStore) Save(name string, info *models.ProjectInfo, flagged bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = info
	m.flagged[name] = flagged
	m.saves++
	return nil
}

type specMap map[string]string

func (s specMap) Load(_ context.Context, name string) (*rpmspec.Spec, error) {
	text, ok := s[name]
	if !ok {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: models.ErrNoSpec}
	}
	return rpmspec.Parse(text), nil
}

type staticBackend struct {
	tags []string
	err  error
}

func (b *staticBackend) Name() string { return "static" }

func (b *staticBackend) FetchTags(_ context.Context, info *models.ProjectInfo) ([]string, error) {
	info.QueryType = "static"
	return b.tags, b.err
}

func backendsFor(byRepo map[string]*staticBackend) BackendFactory {
	return func(versionControl string, _ upstream.Options) (upstream.Backend, error) {
		b, ok := byRepo[versionControl]
		if !ok {
			return nil, upstream.ErrUnknownBackend
		}
		return b, nil
	}
}

type recordingNotifier struct {
	reports []*models.Report
	err     error
}

func (r *recordingNotifier) Notify(_ context.Context, report *models.Report) error {
	r.reports = append(r.reports, report)
	return r.err
}

func specText(name, version string) string {
	return fmt.Sprintf("Name: %s\nVersion: %s\nRelease: 1\nPatch0: a.patch\nPatch1: b.patch\n", name, version)
}

func newTestAdvisor(store RecordStore, specs specMap, backends map[string]*staticBackend, notifier *recordingNotifier, push bool) *Advisor {
	cfg := Config{
		Store:    store,
		Specs:    specs,
		Policy:   version.PolicyLatestStable,
		Push:     push,
		Backends: backendsFor(backends),
	}
	if notifier != nil {
		cfg.Notifier = notifier
	}
	return New(cfg)
}

func TestCheck_Outdated(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{
		"curl": {SrcRepo: "curl/curl", VersionControl: "github", TagPrefix: "curl-", Separator: "_"},
	})
	backends := map[string]*staticBackend{
		"github": {tags: []string{"curl-7_70_0", "curl-7_71_1", "curl-7_9_8", "tiny-curl-7_72_0_beta"}},
	}
	notifier := &recordingNotifier{}

	a := newTestAdvisor(store, specMap{"curl": specText("curl", "7.66.0")}, backends, notifier, true)
	report, err := a.Check(context.Background(), "curl")
	require.NoError(t, err)

	assert.Equal(t, "curl", report.Project)
	assert.Equal(t, "7.66.0", report.CurrentVersion)
	assert.Equal(t, "7.71.1", report.LatestVersion)
	assert.Equal(t, "7.71.1", report.Recommended)
	assert.Equal(t, "latest-stable", report.Policy)
	assert.Equal(t, 2, report.Patches)
	assert.True(t, report.Outdated)
	assert.False(t, report.Flagged)
	assert.True(t, report.Notified)
	require.Len(t, notifier.reports, 1)

	assert.False(t, store.flagged["curl"])
	assert.Equal(t, "static", store.records["curl"].QueryType)
}

func TestCheck_UpToDateIsNotPushed(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{
		"zlib": {SrcRepo: "madler/zlib", VersionControl: "github", TagPrefix: "v"},
	})
	backends := map[string]*staticBackend{"github": {tags: []string{"v1.2.10", "v1.2.11"}}}
	notifier := &recordingNotifier{}

	a := newTestAdvisor(store, specMap{"zlib": specText("zlib", "1.2.11")}, backends, notifier, true)
	report, err := a.Check(context.Background(), "zlib")
	require.NoError(t, err)

	assert.False(t, report.Outdated)
	assert.False(t, report.Flagged)
	assert.False(t, report.Notified)
	assert.Empty(t, notifier.reports)
}

func TestCheck_NoPushWithoutFlag(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{"foo": {VersionControl: "git"}})
	backends := map[string]*staticBackend{"git": {tags: []string{"2.0.0"}}}
	notifier := &recordingNotifier{}

	a := newTestAdvisor(store, specMap{"foo": specText("foo", "1.0.0")}, backends, notifier, false)
	report, err := a.Check(context.Background(), "foo")
	require.NoError(t, err)

	assert.True(t, report.Outdated)
	assert.False(t, report.Notified)
	assert.Empty(t, notifier.reports)
}

func TestCheck_FlaggedWhenUpstreamIsOlder(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{"foo": {VersionControl: "git"}})
	backends := map[string]*staticBackend{"git": {tags: []string{"1.0", "1.1"}}}

	a := newTestAdvisor(store, specMap{"foo": specText("foo", "2.0")}, backends, nil, false)
	report, err := a.Check(context.Background(), "foo")
	require.NoError(t, err)

	assert.True(t, report.Flagged)
	assert.False(t, report.Outdated)
	assert.True(t, store.flagged["foo"])
}

func TestCheck_FetchFailureFlagsProject(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{"foo": {VersionControl: "git"}})
	backends := map[string]*staticBackend{"git": {err: errors.New("connection refused")}}

	a := newTestAdvisor(store, specMap{"foo": specText("foo", "1.0")}, backends, nil, false)
	report, err := a.Check(context.Background(), "foo")
	require.NoError(t, err)

	assert.True(t, report.Flagged)
	assert.Empty(t, report.Tags)
	assert.Equal(t, "", report.LatestVersion)
	assert.Equal(t, "1.0", report.Recommended)
	assert.True(t, store.flagged["foo"])
}

func TestCheck_UnknownBackendFlagsProject(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{"foo": {VersionControl: "cvs"}})

	a := newTestAdvisor(store, specMap{"foo": specText("foo", "1.0")}, nil, nil, false)
	report, err := a.Check(context.Background(), "foo")
	require.NoError(t, err)
	assert.True(t, report.Flagged)
}

func TestCheck_Errors(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{})
	a := newTestAdvisor(store, specMap{"nospec": "", "norecord": specText("norecord", "1.0")}, nil, nil, false)

	_, err := a.Check(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrMissingProject)

	_, err = a.Check(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNoSpec)

	_, err = a.Check(context.Background(), "nospec")
	assert.Error(t, err)

	_, err = a.Check(context.Background(), "norecord")
	assert.Error(t, err)
	assert.Zero(t, store.saves)
}

func TestCheck_NotifyFailure(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{"foo": {VersionControl: "git"}})
	backends := map[string]*staticBackend{"git": {tags: []string{"2.0.0"}}}
	notifier := &recordingNotifier{err: errors.New("gitee down")}

	a := newTestAdvisor(store, specMap{"foo": specText("foo", "1.0.0")}, backends, notifier, true)
	report, err := a.Check(context.Background(), "foo")
	assert.Error(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Notified)
	assert.Equal(t, 1, store.saves)
}

func TestScan(t *testing.T) {
	records := map[string]*models.ProjectInfo{}
	specs := specMap{}
	var names []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("pkg%d", i)
		names = append(names, name)
		records[name] = &models.ProjectInfo{VersionControl: "git"}
		specs[name] = specText(name, "1.0")
	}
	names = append(names, "broken")

	store := newMemStore(records)
	backends := map[string]*staticBackend{"git": {tags: []string{"1.0", "1.1"}}}

	a := newTestAdvisor(store, specs, backends, nil, false)
	results := a.Scan(context.Background(), names, 3)

	require.Len(t, results, len(names))
	for i, r := range results[:10] {
		assert.Equal(t, names[i], r.Project)
		require.NoError(t, r.Err)
		assert.True(t, r.Report.Outdated)
	}
	assert.Equal(t, "broken", results[10].Project)
	assert.Error(t, results[10].Err)
	assert.Equal(t, 10, store.saves)
}

func TestScan_Cancelled(t *testing.T) {
	store := newMemStore(map[string]*models.ProjectInfo{"foo": {VersionControl: "git"}})
	a := newTestAdvisor(store, specMap{"foo": specText("foo", "1.0")}, nil, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := a.Scan(ctx, []string{"foo"}, 0)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
