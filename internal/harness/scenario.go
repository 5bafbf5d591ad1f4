package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tristore/internal/triple"
)

// Scenario is one conformance run: setup facts, a flow of operations and
// final assertions.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backends optionally restricts which backends the scenario runs on.
	// Empty means every compiled-in backend.
	Backends []string `yaml:"backends,omitempty"`

	// Setup facts are inserted with one InsertBatch before the flow.
	Setup []TripleSpec `yaml:"setup,omitempty"`

	// Flow contains the operations under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// TripleSpec is a triple in scenario form.
type TripleSpec struct {
	Subject   string    `yaml:"subject"`
	Predicate string    `yaml:"predicate"`
	Object    ValueSpec `yaml:"object"`
}

// ValueSpec is an object value. Exactly one kind field is set; String may
// be combined with Lang or Datatype.
type ValueSpec struct {
	Node     *string  `yaml:"node,omitempty"`
	String   *string  `yaml:"string,omitempty"`
	Lang     string   `yaml:"lang,omitempty"`
	Datatype string   `yaml:"datatype,omitempty"`
	Integer  *int64   `yaml:"integer,omitempty"`
	Float    *float64 `yaml:"float,omitempty"`
	Boolean  *bool    `yaml:"boolean,omitempty"`
	DateTime *string  `yaml:"datetime,omitempty"`
	Bytes    *string  `yaml:"bytes,omitempty"` // hex
	JSON     *string  `yaml:"json,omitempty"`
	Null     bool     `yaml:"null,omitempty"`
}

// PatternSpec is a triple pattern; empty fields are wildcards.
type PatternSpec struct {
	Subject   string     `yaml:"subject,omitempty"`
	Predicate string     `yaml:"predicate,omitempty"`
	Object    *ValueSpec `yaml:"object,omitempty"`
}

// Step is one store operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	Triple     *TripleSpec  `yaml:"triple,omitempty"`
	Triples    []TripleSpec `yaml:"triples,omitempty"`
	Pattern    *PatternSpec `yaml:"pattern,omitempty"`
	Start      string       `yaml:"start,omitempty"`
	Predicates []string     `yaml:"predicates,omitempty"`

	// Expect validates the outcome. If nil the step only has to not error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error class; empty means success.
	Error string `yaml:"error,omitempty"`

	// Count is the number of results (find, insert_batch distinct IDs, count).
	Count *int `yaml:"count,omitempty"`

	// Found is the boolean outcome of get, contains and delete.
	Found *bool `yaml:"found,omitempty"`

	// Triples is the exact result set of find, in text form.
	Triples []string `yaml:"triples,omitempty"`

	// Nodes is the exact discovery-ordered result of traverse.
	Nodes []string `yaml:"nodes,omitempty"`

	// Stats is a subset match over subjects, predicates, objects, triples.
	Stats map[string]int `yaml:"stats,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	Type   string         `yaml:"type"`
	Op     string         `yaml:"op,omitempty"`
	Input  string         `yaml:"input,omitempty"`
	Ops    []string       `yaml:"ops,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Triple *TripleSpec    `yaml:"triple,omitempty"`
	Stats  map[string]int `yaml:"stats,omitempty"`
}

// Step ops.
const (
	OpInsert      = "insert"
	OpInsertBatch = "insert_batch"
	OpGet         = "get"
	OpDelete      = "delete"
	OpFind        = "find"
	OpContains    = "contains"
	OpTraverse    = "traverse"
	OpCount       = "count"
	OpStats       = "stats"
)

// Error classes used by ExpectClause.Error and TraceEvent.Outcome.
const (
	OutcomeOK        = "ok"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomePoisoned  = "poisoned"
	OutcomeStorage   = "storage"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalCount    = "final_count"
	AssertFinalContains = "final_contains"
	AssertFinalAbsent   = "final_absent"
	AssertFinalStats    = "final_stats"
)

var statKeys = map[string]bool{"subjects": true, "predicates": true, "objects": true, "triples": true}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is invalid.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml file in dir, sorted by file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, ts := range s.Setup {
		if _, err := ts.Triple(); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i := range s.Flow {
		if err := validateStep(&s.Flow[i]); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(st *Step) error {
	switch st.Op {
	case OpInsert, OpGet, OpDelete, OpContains:
		if st.Triple == nil {
			return fmt.Errorf("triple is required for %s", st.Op)
		}
		if _, err := st.Triple.Triple(); err != nil {
			return err
		}
	case OpInsertBatch:
		if len(st.Triples) == 0 {
			return fmt.Errorf("triples list is required for insert_batch")
		}
		for j, ts := range st.Triples {
			if _, err := ts.Triple(); err != nil {
				return fmt.Errorf("triples[%d]: %w", j, err)
			}
		}
	case OpFind:
		if st.Pattern == nil {
			return fmt.Errorf("pattern is required for find (use {} for a full scan)")
		}
		if _, err := st.Pattern.Pattern(); err != nil {
			return err
		}
	case OpTraverse:
		if st.Start == "" {
			return fmt.Errorf("start is required for traverse")
		}
		if _, err := triple.ParseNode(st.Start); err != nil {
			return err
		}
	case OpCount, OpStats:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}

	if st.Expect == nil {
		return nil
	}
	switch st.Expect.Error {
	case "", OutcomeDuplicate, OutcomeInvalid, OutcomePoisoned, OutcomeStorage:
	default:
		return fmt.Errorf("expect: unknown error class %q", st.Expect.Error)
	}
	for k := range st.Expect.Stats {
		if !statKeys[k] {
			return fmt.Errorf("expect: unknown stat %q", k)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for final_count", index)
		}
	case AssertFinalContains, AssertFinalAbsent:
		if a.Triple == nil {
			return fmt.Errorf("assertions[%d]: triple is required for %s", index, a.Type)
		}
		if _, err := a.Triple.Triple(); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertFinalStats:
		if len(a.Stats) == 0 {
			return fmt.Errorf("assertions[%d]: stats is required for final_stats", index)
		}
		for k := range a.Stats {
			if !statKeys[k] {
				return fmt.Errorf("assertions[%d]: unknown stat %q", index, k)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Triple converts the spec. created_at is left zero for the store clock.
func (ts TripleSpec) Triple() (triple.Triple, error) {
	s, err := triple.ParseNode(ts.Subject)
	if err != nil {
		return triple.Triple{}, fmt.Errorf("subject: %w", err)
	}
	if ts.Predicate == "" {
		return triple.Triple{}, fmt.Errorf("predicate is required")
	}
	o, err := ts.Object.Value()
	if err != nil {
		return triple.Triple{}, fmt.Errorf("object: %w", err)
	}
	return triple.Triple{Subject: s, Predicate: triple.Predicate(ts.Predicate), Object: o}, nil
}

// Value converts the spec into a triple.Value.
func (v ValueSpec) Value() (triple.Value, error) {
	var (
		out   triple.Value
		kinds int
	)
	set := func(val triple.Value) {
		out = val
		kinds++
	}

	if v.Node != nil {
		n, err := triple.ParseNode(*v.Node)
		if err != nil {
			return nil, err
		}
		set(triple.NodeValue(n))
	}
	if v.String != nil {
		switch {
		case v.Lang != "" && v.Datatype != "":
			return nil, fmt.Errorf("lang and datatype are exclusive")
		case v.Lang != "":
			set(triple.LangString{Value: *v.String, Lang: v.Lang})
		case v.Datatype != "":
			set(triple.Typed{Value: *v.String, Datatype: v.Datatype})
		default:
			set(triple.String(*v.String))
		}
	} else if v.Lang != "" || v.Datatype != "" {
		return nil, fmt.Errorf("lang and datatype need string")
	}
	if v.Integer != nil {
		set(triple.Integer(*v.Integer))
	}
	if v.Float != nil {
		set(triple.Float(*v.Float))
	}
	if v.Boolean != nil {
		set(triple.Boolean(*v.Boolean))
	}
	if v.DateTime != nil {
		set(triple.DateTime(*v.DateTime))
	}
	if v.Bytes != nil {
		b, err := hex.DecodeString(*v.Bytes)
		if err != nil {
			return nil, fmt.Errorf("bytes: %w", err)
		}
		set(triple.Bytes(b))
	}
	if v.JSON != nil {
		set(triple.JSON(*v.JSON))
	}
	if v.Null {
		set(triple.Null{})
	}

	switch kinds {
	case 0:
		return nil, fmt.Errorf("value kind is required")
	case 1:
		return out, nil
	default:
		return nil, fmt.Errorf("exactly one value kind allowed, got %d", kinds)
	}
}

// Pattern converts the spec into a triple.Pattern.
func (ps PatternSpec) Pattern() (triple.Pattern, error) {
	var pat triple.Pattern
	if ps.Subject != "" {
		s, err := triple.ParseNode(ps.Subject)
		if err != nil {
			return pat, fmt.Errorf("pattern subject: %w", err)
		}
		pat.Subject = &s
	}
	if ps.Predicate != "" {
		p := triple.Predicate(ps.Predicate)
		pat.Predicate = &p
	}
	if ps.Object != nil {
		o, err := ps.Object.Value()
		if err != nil {
			return pat, fmt.Errorf("pattern object: %w", err)
		}
		pat.Object = o
	}
	return pat, nil
}
