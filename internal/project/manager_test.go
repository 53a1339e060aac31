package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datapresso/internal/capability"
	"datapresso/internal/codec"
	"datapresso/internal/recent"
	"datapresso/internal/store"
	"datapresso/internal/workflow"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) ofKind(kind Kind) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.items {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) atLeast(level Level) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.items {
		if n.Level >= level {
			out = append(out, n)
		}
	}
	return out
}

type cancelPicker struct{}

func (cancelPicker) Pick(context.Context, string) (*capability.Directory, error) {
	return nil, capability.ErrUserCancelled
}

type testEnv struct {
	manager  *Manager
	broker   *capability.Broker
	registry *recent.Registry
	notes    *recordingNotifier
	clock    time.Time
}

func newTestEnv(t *testing.T, prompter capability.Prompter) *testEnv {
	t.Helper()
	env := &testEnv{
		broker: capability.NewBroker(prompter),
		notes:  &recordingNotifier{},
		clock:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	env.registry = recent.NewRegistry(
		store.NewFileStore(t.TempDir()),
		recent.WithClock(recent.ClockFunc(func() time.Time {
			env.clock = env.clock.Add(time.Second)
			return env.clock
		})),
	)
	env.manager = NewManager(Options{
		Broker:   env.broker,
		Registry: env.registry,
		Store:    workflow.NewStore(),
		Notifier: env.notes,
	})
	return env
}

// projectDir creates a directory, optionally with a config file, and
// returns a selected (granted) reference to it.
func (e *testEnv) projectDir(t *testing.T, name string, config string) *capability.Directory {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.Mkdir(path, 0o755))
	if config != "" {
		require.NoError(t, os.WriteFile(filepath.Join(path, DefaultFileName), []byte(config), 0o644))
	}
	dir, err := e.broker.Select(path)
	require.NoError(t, err)
	return dir
}

func TestLoadConfig_MissingFileOpensFreshProject(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := env.projectDir(t, "empty-project", "")

	res, err := env.manager.LoadConfig(context.Background(), dir, "")
	require.NoError(t, err)

	assert.True(t, res.Fresh)
	assert.Equal(t, "empty-project", res.Name)
	assert.Equal(t, StateOpen, env.manager.State())
	assert.Equal(t, workflow.Default(), env.manager.Store().Get())
	assert.Empty(t, env.notes.atLeast(LevelWarning), "a missing file is not a user-visible error")

	active, ok := env.manager.Active()
	require.True(t, ok)
	assert.Equal(t, "empty-project", active.Name)
}

func TestLoadConfig_MissingFileKeepsTree(t *testing.T) {
	env := newTestEnv(t, nil)
	env.manager.Store().SetName("unsaved draft")
	dir := env.projectDir(t, "empty-project", "")

	_, err := env.manager.LoadConfig(context.Background(), dir, "Draft")
	require.NoError(t, err)

	assert.Equal(t, "unsaved draft", env.manager.Store().Get().WorkflowName)
	active, _ := env.manager.Active()
	assert.Equal(t, "Draft", active.Name)
}

func TestLoadConfig_MalformedFileOpensWithDefaults(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.manager.Store().UpdateSection("seedConfig", workflow.Values{"count": 3}))
	dir := env.projectDir(t, "broken", "this is not a mapping")

	res, err := env.manager.LoadConfig(context.Background(), dir, "")
	require.NoError(t, err)

	require.NotNil(t, res.FormatErr)
	assert.True(t, errors.Is(res.FormatErr, codec.ErrFormat))
	assert.Equal(t, StateOpen, env.manager.State())
	assert.Equal(t, workflow.Default(), env.manager.Store().Get())
	assert.Len(t, env.notes.ofKind(KindFormatError), 1)
	assert.Len(t, env.notes.atLeast(LevelWarning), 1)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	text := "workflowName: Distillation\ngenerationConfig:\n  model: x\n"

	tests := []struct {
		name          string
		preferredName string
		wantName      string
	}{
		{name: "name from file", preferredName: "", wantName: "Distillation"},
		{name: "preferred name wins", preferredName: "Mine", wantName: "Mine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			dir := env.projectDir(t, "project", text)

			res, err := env.manager.LoadConfig(context.Background(), dir, tt.preferredName)
			require.NoError(t, err)
			assert.False(t, res.Fresh)
			assert.Equal(t, tt.wantName, res.Name)

			cfg := env.manager.Store().Get()
			assert.Equal(t, "Distillation", cfg.WorkflowName)
			assert.Equal(t, workflow.Values{"model": "x"}, cfg.GenerationConfig)
			assert.Equal(t, workflow.Values{}, cfg.SeedConfig)

			records, err := env.registry.List()
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantName, records[0].Name)
		})
	}
}

func TestLoadConfig_NameFallsBackToDirectory(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := env.projectDir(t, "unnamed-project", "workflowName: \"\"\n")

	res, err := env.manager.LoadConfig(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, "unnamed-project", res.Name)
}

func TestLoadConfig_AccessDeniedRestoresPreviousProject(t *testing.T) {
	env := newTestEnv(t, capability.StaticPrompter(false))
	first := env.projectDir(t, "first", "")
	_, err := env.manager.LoadConfig(context.Background(), first, "")
	require.NoError(t, err)

	other := env.projectDir(t, "other", "workflowName: other\n")
	env.broker.Revoke(other)

	_, err = env.manager.LoadConfig(context.Background(), other, "")
	assert.True(t, errors.Is(err, ErrAccessDenied))

	active, ok := env.manager.Active()
	require.True(t, ok)
	assert.Equal(t, "first", active.Name)
	assert.Equal(t, StateOpen, env.manager.State())
}

func TestSelectDirectory_CancelledIsNotAnError(t *testing.T) {
	env := newTestEnv(t, nil)

	dir, err := env.manager.SelectDirectoryWith(context.Background(), cancelPicker{}, "")
	assert.NoError(t, err)
	assert.Nil(t, dir)
	assert.Equal(t, StateClosed, env.manager.State())
	assert.Empty(t, env.notes.atLeast(LevelInfo))
}

func TestSelectDirectory_PathPicker(t *testing.T) {
	env := newTestEnv(t, nil)
	path := filepath.Join(t.TempDir(), "picked")
	require.NoError(t, os.Mkdir(path, 0o755))

	dir, err := env.manager.SelectDirectoryWith(context.Background(), capability.PathPicker{Broker: env.broker, Path: path}, "")
	require.NoError(t, err)
	require.NotNil(t, dir)
	assert.Equal(t, "picked", dir.Name())
	assert.Equal(t, StateOpen, env.manager.State())
}

func TestOpenRecent_DeniedLeavesEverythingUnchanged(t *testing.T) {
	env := newTestEnv(t, capability.StaticPrompter(false))
	ctx := context.Background()

	current := env.projectDir(t, "current", "")
	_, err := env.manager.LoadConfig(ctx, current, "")
	require.NoError(t, err)

	stale := env.projectDir(t, "stale", "workflowName: stale\n")
	_, err = env.registry.Upsert("stale", stale)
	require.NoError(t, err)

	// A fresh process: the record is restored without a grant.
	before, err := env.registry.List()
	require.NoError(t, err)
	var rec recent.Record
	for _, r := range before {
		if r.Name == "stale" {
			rec, err = env.registry.Get(r.ID)
			require.NoError(t, err)
		}
	}
	env.broker.Revoke(rec.Directory)

	_, err = env.manager.OpenRecent(ctx, rec)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	after, err := env.registry.List()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	active, ok := env.manager.Active()
	require.True(t, ok)
	assert.Equal(t, "current", active.Name)
	assert.Equal(t, StateOpen, env.manager.State())
}

func TestOpenRecent_GrantedOpensWithRecordName(t *testing.T) {
	env := newTestEnv(t, capability.StaticPrompter(true))
	ctx := context.Background()

	dir := env.projectDir(t, "saved", "workflowName: from-file\n")
	rec, err := env.registry.Upsert("Saved Project", dir)
	require.NoError(t, err)
	restored, err := env.registry.Get(rec.ID)
	require.NoError(t, err)
	env.broker.Revoke(dir)

	res, err := env.manager.OpenRecent(ctx, restored)
	require.NoError(t, err)
	assert.Equal(t, "Saved Project", res.Name)

	records, err := env.registry.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRemoveRecent_DoesNotAffectActiveProject(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	a := env.projectDir(t, "a", "")
	b := env.projectDir(t, "b", "")
	_, err := env.manager.LoadConfig(ctx, a, "")
	require.NoError(t, err)
	_, err = env.manager.LoadConfig(ctx, b, "")
	require.NoError(t, err)

	records, err := env.registry.List()
	require.NoError(t, err)
	require.Len(t, records, 2)

	var openID string
	for _, r := range records {
		if r.Name == "b" {
			openID = r.ID
		}
	}
	require.NoError(t, env.registry.Remove(openID))

	after, err := env.registry.List()
	require.NoError(t, err)
	assert.Len(t, after, len(records)-1)

	active, ok := env.manager.Active()
	require.True(t, ok)
	assert.Equal(t, "b", active.Name)
}

func TestSaveConfig_NoActiveProject(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.manager.SaveConfig(context.Background())
	assert.True(t, errors.Is(err, ErrNoActiveProject))
}

func TestSaveConfig_BackToBack(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	dir := env.projectDir(t, "project", "")
	_, err := env.manager.LoadConfig(ctx, dir, "")
	require.NoError(t, err)

	store := env.manager.Store()
	require.NoError(t, store.UpdateSection("generationConfig", workflow.Values{"model": "x"}))
	require.NoError(t, env.manager.SaveConfig(ctx))

	require.NoError(t, store.UpdateSection("generationConfig", workflow.Values{"temperature": 0.5}))
	require.NoError(t, env.manager.SaveConfig(ctx))

	expected, err := codec.Encode(store.Get())
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir.Path(), DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(data))
	assert.Equal(t, StateOpen, env.manager.State())
}

func TestSaveConfig_ConcurrentSavesAreSerialized(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	dir := env.projectDir(t, "project", "")
	_, err := env.manager.LoadConfig(ctx, dir, "")
	require.NoError(t, err)

	big := workflow.Values{}
	for i := 0; i < 500; i++ {
		big[fmt.Sprintf("key%03d", i)] = i
	}
	require.NoError(t, env.manager.Store().UpdateSection("trainingConfig", big))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.manager.SaveConfig(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	expected, err := codec.Encode(env.manager.Store().Get())
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir.Path(), DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, expected, data)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	dir := env.projectDir(t, "project", "")
	_, err := env.manager.LoadConfig(ctx, dir, "")
	require.NoError(t, err)

	require.NoError(t, env.manager.Store().UpdateSection("filteringConfig", workflow.Values{"threshold": 1.0, "keep": []any{"a"}}))
	env.manager.Store().SetDescription("round trip")
	want := env.manager.Store().Get()
	require.NoError(t, env.manager.SaveConfig(ctx))

	env.manager.Close()
	env.manager.Store().Reset()

	_, err = env.manager.LoadConfig(ctx, dir, "")
	require.NoError(t, err)
	assert.Equal(t, want, env.manager.Store().Get())
}

func TestClose_IsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := env.projectDir(t, "project", "")
	_, err := env.manager.LoadConfig(context.Background(), dir, "")
	require.NoError(t, err)
	require.NoError(t, env.manager.Store().UpdateSection("seedConfig", workflow.Values{"n": 1}))

	env.manager.Close()
	env.manager.Close()

	_, ok := env.manager.Active()
	assert.False(t, ok)
	assert.Equal(t, StateClosed, env.manager.State())
	assert.Equal(t, workflow.Values{"n": 1}, env.manager.Store().Get().SeedConfig)
	assert.Len(t, env.notes.ofKind(KindClosed), 1)

	records, err := env.registry.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExport_MatchesEncode(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.manager.Store().UpdateSection("assessmentConfig", workflow.Values{"judge": "model-b"}))

	var buf bytes.Buffer
	require.NoError(t, env.manager.Export(&buf))

	expected, err := codec.Encode(env.manager.Store().Get())
	require.NoError(t, err)
	assert.Equal(t, expected, buf.Bytes())
}

func TestImport(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.manager.Import(ctx, []byte("workflowName: imported\nseedConfig:\n  count: 2\n")))
	cfg := env.manager.Store().Get()
	assert.Equal(t, "imported", cfg.WorkflowName)
	assert.Equal(t, workflow.Values{"count": 2}, cfg.SeedConfig)
	assert.Equal(t, workflow.Values{}, cfg.TrainingConfig)

	err := env.manager.Import(ctx, []byte("- not\n- a mapping\n"))
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, "imported", env.manager.Store().Get().WorkflowName)
}

func TestCreateDirectoryAndFile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	assert.True(t, errors.Is(env.manager.CreateDirectory(ctx, "data"), ErrNoActiveProject))

	dir := env.projectDir(t, "project", "")
	_, err := env.manager.LoadConfig(ctx, dir, "")
	require.NoError(t, err)

	require.NoError(t, env.manager.CreateDirectory(ctx, "data"))
	require.NoError(t, env.manager.CreateDirectory(ctx, "data"), "existing directory is fine")
	require.NoError(t, env.manager.CreateFile(ctx, "notes.md", []byte("# notes\n")))

	info, err := os.Stat(filepath.Join(dir.Path(), "data"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	content, err := os.ReadFile(filepath.Join(dir.Path(), "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, "# notes\n", string(content))

	for _, bad := range []string{"", "..", "a/b", "../escape"} {
		assert.True(t, errors.Is(env.manager.CreateFile(ctx, bad, nil), ErrInvalidName), "name %q", bad)
	}
}

func TestEntries_LazyAndRestartable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	dir := env.projectDir(t, "project", "workflowName: x\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir.Path(), "runs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "seed.jsonl"), nil, 0o644))

	seq := env.manager.Entries(ctx, dir)

	collect := func() map[string]EntryKind {
		out := map[string]EntryKind{}
		for entry, err := range seq {
			require.NoError(t, err)
			out[entry.Name] = entry.Kind
		}
		return out
	}

	first := collect()
	assert.Equal(t, map[string]EntryKind{
		DefaultFileName: KindFile,
		"runs":          KindDirectory,
		"seed.jsonl":    KindFile,
	}, first)

	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "later.txt"), nil, 0o644))
	second := collect()
	assert.Len(t, second, 4, "a new range sees the current contents")

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestActiveEntries_NoProject(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, err := range env.manager.ActiveEntries(context.Background()) {
		assert.True(t, errors.Is(err, ErrNoActiveProject))
	}
}

func TestLoadConfig_RegistryFailureIsNotFatal(t *testing.T) {
	notes := &recordingNotifier{}
	broker := capability.NewBroker(nil)
	m := NewManager(Options{
		Broker:   broker,
		Registry: recent.NewRegistry(brokenStore{}),
		Notifier: notes,
	})
	path := t.TempDir()
	dir, err := broker.Select(path)
	require.NoError(t, err)

	_, err = m.LoadConfig(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, m.State())
	assert.Len(t, notes.ofKind(KindStorageFailure), 1)
}

func TestAcquireHonoursContext(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.manager.sem.Acquire(context.Background(), 1))
	defer env.manager.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := env.manager.SaveConfig(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

type brokenStore struct{}

func (brokenStore) Save(string, string, []byte) error   { return errors.New("disk full") }
func (brokenStore) Load(string, string) ([]byte, error) { return nil, errors.New("disk full") }
func (brokenStore) Delete(string, string) error         { return errors.New("disk full") }
func (brokenStore) List(string) ([]string, error)       { return nil, errors.New("disk full") }
