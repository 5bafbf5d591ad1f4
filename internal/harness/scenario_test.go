package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tristore/internal/triple"
)

const minimalFlow = `
flow:
  - op: count
assertions:
  - type: final_count
    count: 0
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
backends: [memory, sqlite]
setup:
  - { subject: "<ex:a>", predicate: ex:p, object: { string: hi, lang: en } }
flow:
  - op: get
    triple: { subject: "<ex:a>", predicate: ex:p, object: { string: hi, lang: en } }
    expect:
      found: true
assertions:
  - type: trace_contains
    op: get
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, []string{"memory", "sqlite"}, scenario.Backends)
	assert.Len(t, scenario.Setup, 1)
	assert.Len(t, scenario.Flow, 1)
	assert.Equal(t, OpGet, scenario.Flow[0].Op)
	require.NotNil(t, scenario.Flow[0].Expect.Found)
	assert.True(t, *scenario.Flow[0].Expect.Found)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioDir_SortedByFileName(t *testing.T) {
	scenarios, err := LoadScenarioDir(scenarioDir)
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"people", "traversal", "values"}, names)
}

func TestLoadScenarioDir_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	_, err := LoadScenarioDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nflows: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\n" + minimalFlow,
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\n" + minimalFlow,
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\ndescription: d\nassertions: [{type: final_count}]\n",
			wantErr: "flow list is required",
		},
		{
			name:    "missing assertions",
			yaml:    "name: x\ndescription: d\nflow: [{op: count}]\n",
			wantErr: "assertions list is required",
		},
		{
			name: "unknown op",
			yaml: `name: x
description: d
flow: [{op: upsert}]
assertions: [{type: final_count}]
`,
			wantErr: `flow[0]: unknown op "upsert"`,
		},
		{
			name: "insert without triple",
			yaml: `name: x
description: d
flow: [{op: insert}]
assertions: [{type: final_count}]
`,
			wantErr: "triple is required for insert",
		},
		{
			name: "find without pattern",
			yaml: `name: x
description: d
flow: [{op: find}]
assertions: [{type: final_count}]
`,
			wantErr: "pattern is required for find",
		},
		{
			name: "traverse without start",
			yaml: `name: x
description: d
flow: [{op: traverse}]
assertions: [{type: final_count}]
`,
			wantErr: "start is required for traverse",
		},
		{
			name: "empty batch",
			yaml: `name: x
description: d
flow: [{op: insert_batch}]
assertions: [{type: final_count}]
`,
			wantErr: "triples list is required",
		},
		{
			name: "two value kinds",
			yaml: `name: x
description: d
setup:
  - { subject: "<ex:a>", predicate: ex:p, object: { integer: 1, boolean: true } }
` + minimalFlow,
			wantErr: "setup[0]: object: exactly one value kind allowed, got 2",
		},
		{
			name: "no value kind",
			yaml: `name: x
description: d
setup:
  - { subject: "<ex:a>", predicate: ex:p, object: {} }
` + minimalFlow,
			wantErr: "value kind is required",
		},
		{
			name: "lang without string",
			yaml: `name: x
description: d
setup:
  - { subject: "<ex:a>", predicate: ex:p, object: { integer: 1, lang: en } }
` + minimalFlow,
			wantErr: "lang and datatype need string",
		},
		{
			name: "bad hex",
			yaml: `name: x
description: d
setup:
  - { subject: "<ex:a>", predicate: ex:p, object: { bytes: xyz } }
` + minimalFlow,
			wantErr: "bytes:",
		},
		{
			name: "unknown error class",
			yaml: `name: x
description: d
flow: [{op: count, expect: {error: explode}}]
assertions: [{type: final_count}]
`,
			wantErr: `unknown error class "explode"`,
		},
		{
			name: "unknown stat",
			yaml: `name: x
description: d
flow: [{op: stats, expect: {stats: {edges: 1}}}]
assertions: [{type: final_count}]
`,
			wantErr: `expect: unknown stat "edges"`,
		},
		{
			name: "assertion without type",
			yaml: `name: x
description: d
flow: [{op: count}]
assertions: [{op: count}]
`,
			wantErr: "assertions[0]: type is required",
		},
		{
			name: "unknown assertion type",
			yaml: `name: x
description: d
flow: [{op: count}]
assertions: [{type: eventually}]
`,
			wantErr: `unknown assertion type "eventually"`,
		},
		{
			name: "trace_order without ops",
			yaml: `name: x
description: d
flow: [{op: count}]
assertions: [{type: trace_order}]
`,
			wantErr: "ops list is required for trace_order",
		},
		{
			name: "final_absent without triple",
			yaml: `name: x
description: d
flow: [{op: count}]
assertions: [{type: final_absent}]
`,
			wantErr: "triple is required for final_absent",
		},
		{
			name: "final_stats without stats",
			yaml: `name: x
description: d
flow: [{op: count}]
assertions: [{type: final_stats}]
`,
			wantErr: "stats is required for final_stats",
		},
		{
			name: "negative count",
			yaml: `name: x
description: d
flow: [{op: count}]
assertions: [{type: trace_count, op: count, count: -1}]
`,
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValueSpec_Value(t *testing.T) {
	str := func(s string) *string { return &s }
	i := int64(5)
	f := 2.5
	b := true

	tests := []struct {
		name string
		spec ValueSpec
		want triple.Value
	}{
		{"node", ValueSpec{Node: str("<ex:a>")}, triple.NodeValue(triple.NamedNode("ex:a"))},
		{"string", ValueSpec{String: str("hi")}, triple.String("hi")},
		{"lang", ValueSpec{String: str("hi"), Lang: "en"}, triple.LangString{Value: "hi", Lang: "en"}},
		{"typed", ValueSpec{String: str("x"), Datatype: "xsd:token"}, triple.Typed{Value: "x", Datatype: "xsd:token"}},
		{"integer", ValueSpec{Integer: &i}, triple.Integer(5)},
		{"float", ValueSpec{Float: &f}, triple.Float(2.5)},
		{"boolean", ValueSpec{Boolean: &b}, triple.Boolean(true)},
		{"datetime", ValueSpec{DateTime: str("2024-05-01T00:00:00Z")}, triple.DateTime("2024-05-01T00:00:00Z")},
		{"bytes", ValueSpec{Bytes: str("cafe")}, triple.Bytes{0xca, 0xfe}},
		{"json", ValueSpec{JSON: str(`{"a":1}`)}, triple.JSON(`{"a":1}`)},
		{"null", ValueSpec{Null: true}, triple.Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.Value()
			require.NoError(t, err)
			assert.True(t, triple.ValuesEqual(tt.want, got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestValueSpec_LangAndDatatypeExclusive(t *testing.T) {
	s := "x"
	_, err := ValueSpec{String: &s, Lang: "en", Datatype: "xsd:token"}.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclusive")
}

func TestPatternSpec_Pattern(t *testing.T) {
	pat, err := PatternSpec{}.Pattern()
	require.NoError(t, err)
	assert.Equal(t, "?s ?p ?o", pat.String())

	n := int64(42)
	pat, err = PatternSpec{Predicate: "ex:age", Object: &ValueSpec{Integer: &n}}.Pattern()
	require.NoError(t, err)
	assert.Equal(t, "?s <ex:age> 42", pat.String())

	_, err = PatternSpec{Object: &ValueSpec{}}.Pattern()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern object")
}

func TestTripleSpec_Triple(t *testing.T) {
	s := "Alice"
	got, err := TripleSpec{Subject: "<ex:alice>", Predicate: "ex:has_name", Object: ValueSpec{String: &s}}.Triple()
	require.NoError(t, err)
	assert.Equal(t, `<ex:alice> <ex:has_name> "Alice" .`, got.String())
	assert.True(t, got.CreatedAt.IsZero(), "created_at is left for the store clock")

	_, err = TripleSpec{Subject: "<ex:alice>", Object: ValueSpec{String: &s}}.Triple()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predicate is required")
}
