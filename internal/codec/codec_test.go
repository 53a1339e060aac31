package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datapresso/internal/workflow"
)

func TestEncode_Default(t *testing.T) {
	out, err := Encode(workflow.Default())
	require.NoError(t, err)

	expected := `workflowName: My LIMO workflow
workflowDescription: ""
seedConfig: {}
generationConfig: {}
filteringConfig: {}
assessmentConfig: {}
trainingConfig: {}
`
	assert.Equal(t, expected, string(out))
}

func TestEncode_OrderingAndTypes(t *testing.T) {
	cfg := workflow.Default()
	cfg.GenerationConfig = workflow.Values{
		"temperature": 1.0,
		"model":       "x",
		"maxTokens":   512,
		"seedText":    "123",
	}
	cfg.Extra = map[string]any{"zeta": true, "alpha": "a"}

	out, err := Encode(cfg)
	require.NoError(t, err)

	expected := `workflowName: My LIMO workflow
workflowDescription: ""
seedConfig: {}
generationConfig:
  maxTokens: 512
  model: x
  seedText: "123"
  temperature: 1.0
filteringConfig: {}
assessmentConfig: {}
trainingConfig: {}
alpha: a
zeta: true
`
	assert.Equal(t, expected, string(out))
}

func TestEncode_Deterministic(t *testing.T) {
	cfg := sampleConfig()

	first, err := Encode(cfg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(cfg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  workflow.Config
	}{
		{name: "default", cfg: workflow.Default()},
		{name: "populated", cfg: sampleConfig()},
		{
			name: "unicode and multiline",
			cfg: workflow.Config{
				WorkflowName:        "我的LIMO流程",
				WorkflowDescription: "line one\nline two",
				SeedConfig:          workflow.Values{"prompt": "say \"hi\": now"},
			}.WithDefaults(),
		},
		{
			name: "stringly values",
			cfg: workflow.Config{
				WorkflowName: "true",
				TrainingConfig: workflow.Values{
					"empty": "",
					"null":  "null",
					"num":   "1.5",
					"yes":   "yes",
				},
			}.WithDefaults(),
		},
		{
			name: "unsigned above int64",
			cfg: workflow.Config{
				WorkflowName: "big",
				SeedConfig:   workflow.Values{"seed": uint64(1 << 63), "small": 7},
			}.WithDefaults(),
		},
		{
			name: "invalid utf-8",
			cfg: workflow.Config{
				WorkflowName: "bytes",
				SeedConfig:   workflow.Values{"raw": "\xff\xfeabc"},
			}.WithDefaults(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Encode(tt.cfg)
			require.NoError(t, err)

			decoded, err := Decode(text)
			require.NoError(t, err)
			assert.Equal(t, tt.cfg, decoded)
		})
	}
}

func TestDecode_MissingSectionsStayNil(t *testing.T) {
	cfg, err := Decode([]byte("workflowName: partial\ngenerationConfig:\n  model: x\n"))
	require.NoError(t, err)

	assert.Equal(t, "partial", cfg.WorkflowName)
	assert.Equal(t, workflow.Values{"model": "x"}, cfg.GenerationConfig)
	assert.Nil(t, cfg.SeedConfig)
	assert.Nil(t, cfg.TrainingConfig)
}

func TestDecode_PreservesUnknownKeys(t *testing.T) {
	text := []byte("workflowName: w\ncustom:\n  b: 2\n  a: [1, two]\n")

	cfg, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"custom": map[string]any{"a": []any{1, "two"}, "b": 2},
	}, cfg.Extra)

	out, err := Encode(cfg.WithDefaults())
	require.NoError(t, err)
	assert.Contains(t, string(out), "trainingConfig: {}\ncustom:\n")

	again, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Extra, again.Extra)
}

func TestDecode_FormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason string
	}{
		{name: "empty", text: "", reason: "document is empty"},
		{name: "comment only", text: "# nothing here\n", reason: "document is empty"},
		{name: "plain text", text: "just some text", reason: "expected a mapping"},
		{name: "list", text: "- a\n- b\n", reason: "expected a mapping"},
		{name: "syntax", text: "workflowName: [unterminated\n", reason: "not valid YAML"},
		{name: "scalar section", text: "seedConfig: 5\n", reason: "wrong shape"},
		{name: "list name", text: "workflowName: [a, b]\n", reason: "wrong shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.text))
			require.Error(t, err)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.True(t, errors.Is(err, ErrFormat))
			assert.Contains(t, fe.Reason, tt.reason)
		})
	}
}

func TestFormatError_Details(t *testing.T) {
	_, err := Decode([]byte("plain"))
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	fe.Source = "/tmp/project/config.yaml"

	assert.Equal(t, 1, fe.Line)
	assert.Contains(t, fe.Error(), "/tmp/project/config.yaml")
	assert.Contains(t, fe.DetailedError(), "Suggestions:")
	assert.Contains(t, fe.DetailedError(), "Line: 1")
}

func TestToJSON(t *testing.T) {
	text, err := Encode(sampleConfig())
	require.NoError(t, err)

	out, err := ToJSON(text)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sample", decoded["workflowName"])
	assert.Equal(t, map[string]any{"model": "x", "temperature": 0.5}, decoded["generationConfig"])
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{-3, "-3.0"},
		{0.25, "0.25"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFloat(tt.in))
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{in: "3", want: 3},
		{in: "0.25", want: 0.25},
		{in: "true", want: true},
		{in: "adamw", want: "adamw"},
		{in: "'3'", want: "3"},
		{in: "[a, 2]", want: []any{"a", 2}},
		{in: "{lr: 0.1}", want: map[string]any{"lr": 0.1}},
		{in: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseValue("[unterminated")
	assert.True(t, errors.Is(err, ErrFormat))
}

func sampleConfig() workflow.Config {
	return workflow.Config{
		WorkflowName:        "sample",
		WorkflowDescription: "a sample pipeline",
		SeedConfig: workflow.Values{
			"count":   10,
			"sources": []any{"a.jsonl", "b.jsonl"},
		},
		GenerationConfig: workflow.Values{"model": "x", "temperature": 0.5},
		FilteringConfig: workflow.Values{
			"threshold": 2.0,
			"enabled":   true,
			"rules":     map[string]any{"minLength": 16, "language": nil},
		},
		AssessmentConfig: workflow.Values{},
		TrainingConfig:   workflow.Values{"epochs": 3, "tags": []any{}},
	}
}

func TestEncode_EdgeScalars(t *testing.T) {
	cfg := workflow.Config{
		WorkflowName: "edges",
		SeedConfig:   workflow.Values{"seed": uint64(1 << 63), "raw": "\xff"},
	}.WithDefaults()

	out, err := Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "seed: 9223372036854775808\n")
	assert.Contains(t, string(out), "raw: !!binary /w==\n")
}
