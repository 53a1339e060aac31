package workflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultWorkflowName, cfg.WorkflowName)
	assert.Empty(t, cfg.WorkflowDescription)
	for _, s := range Sections {
		assert.NotNil(t, cfg.Section(s), "section %s", s)
		assert.Empty(t, cfg.Section(s), "section %s", s)
	}
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		name    string
		want    Section
		wantErr bool
	}{
		{name: "seedConfig", want: SectionSeed},
		{name: "generationConfig", want: SectionGeneration},
		{name: "filteringConfig", want: SectionFiltering},
		{name: "assessmentConfig", want: SectionAssessment},
		{name: "trainingConfig", want: SectionTraining},
		{name: "evaluationConfig", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSection(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownSection))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_UpdateSectionMerges(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.UpdateSection("generationConfig", Values{"model": "x"}))
	require.NoError(t, s.UpdateSection("generationConfig", Values{"temperature": 0.5}))

	assert.Equal(t, Values{"model": "x", "temperature": 0.5}, s.Get().GenerationConfig)
}

func TestStore_UpdateSectionOverwritesKey(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.UpdateSection("trainingConfig", Values{"epochs": 3, "lr": 0.1}))
	require.NoError(t, s.UpdateSection("trainingConfig", Values{"epochs": 5}))

	assert.Equal(t, Values{"epochs": 5, "lr": 0.1}, s.Get().TrainingConfig)
}

func TestStore_UpdateSectionUnknown(t *testing.T) {
	s := NewStore()
	before := s.Get()

	err := s.UpdateSection("bogusConfig", Values{"a": 1})
	assert.True(t, errors.Is(err, ErrUnknownSection))
	assert.Equal(t, before, s.Get())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.UpdateSection("seedConfig", Values{"nested": map[string]any{"k": "v"}}))

	snapshot := s.Get()
	snapshot.SeedConfig["added"] = true
	snapshot.SeedConfig["nested"].(map[string]any)["k"] = "changed"

	fresh := s.Get()
	assert.NotContains(t, fresh.SeedConfig, "added")
	assert.Equal(t, "v", fresh.SeedConfig["nested"].(map[string]any)["k"])
}

func TestStore_UpdateSectionDoesNotAliasInput(t *testing.T) {
	s := NewStore()
	partial := Values{"list": []any{"a"}}
	require.NoError(t, s.UpdateSection("filteringConfig", partial))

	partial["list"].([]any)[0] = "b"
	assert.Equal(t, []any{"a"}, s.Get().FilteringConfig["list"])
}

func TestStore_ReplaceFillsMissingSections(t *testing.T) {
	s := NewStore()
	s.Replace(Config{WorkflowName: "loaded", SeedConfig: Values{"n": int64(4)}})

	got := s.Get()
	assert.Equal(t, "loaded", got.WorkflowName)
	assert.Equal(t, Values{"n": 4}, got.SeedConfig)
	assert.Equal(t, Values{}, got.TrainingConfig)
}

func TestStore_SetNameAndDescription(t *testing.T) {
	s := NewStore()
	s.SetName("pipeline")
	s.SetDescription("distil the seed set")

	got := s.Get()
	assert.Equal(t, "pipeline", got.WorkflowName)
	assert.Equal(t, "distil the seed set", got.WorkflowDescription)

	s.Reset()
	assert.Equal(t, Default(), s.Get())
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.UpdateSection("seedConfig", Values{string(rune('a' + i%26)): i})
			_ = s.Get()
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Get().SeedConfig, 26)
}

func TestCanonical(t *testing.T) {
	type named string

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{name: "int64", input: int64(7), want: 7},
		{name: "uint8", input: uint8(3), want: 3},
		{name: "uint64 above int64", input: uint64(1 << 63), want: uint64(1 << 63)},
		{name: "uint64 in range", input: uint64(42), want: 42},
		{name: "float32", input: float32(0.5), want: 0.5},
		{name: "named string", input: named("x"), want: "x"},
		{name: "string slice", input: []string{"a", "b"}, want: []any{"a", "b"}},
		{name: "any-keyed map", input: map[any]any{1: "one"}, want: map[string]any{"1": "one"}},
		{name: "values", input: Values{"k": int32(1)}, want: map[string]any{"k": 1}},
		{name: "nil", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.input))
		})
	}
}
