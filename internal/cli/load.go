package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tristore/internal/harness"
	"github.com/roach88/tristore/internal/triple"
)

// LoadFile is the YAML document read by load. Triples use the scenario
// triple form.
type LoadFile struct {
	Triples []harness.TripleSpec `yaml:"triples"`
}

// LoadResult is the JSON payload of load.
type LoadResult struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Total    int `json:"total"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Bulk insert triples from a YAML file",
		Long: `Insert every triple listed in a YAML file with one batch. Triples
already stored, or repeated within the file, are skipped.

File format:
  triples:
    - { subject: "<ex:alice>", predicate: foaf:knows, object: { node: "<ex:bob>" } }
    - { subject: "<ex:alice>", predicate: ex:has_age, object: { integer: 30 } }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}
}

// readLoadFile parses path strictly; unknown fields are errors.
func readLoadFile(path string) ([]triple.Triple, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc LoadFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ts := make([]triple.Triple, len(doc.Triples))
	for i, spec := range doc.Triples {
		t, err := spec.Triple()
		if err != nil {
			return nil, fmt.Errorf("triples[%d]: %w", i, err)
		}
		ts[i] = t
	}
	return ts, nil
}

func runLoad(opts *RootOptions, path string, cmd *cobra.Command) error {
	ts, err := readLoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid load file", err)
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ctx := cmd.Context()
	before, err := s.store.Count(ctx)
	if err != nil {
		return storeExit("count failed", err)
	}
	if _, err := s.store.InsertBatch(ctx, ts); err != nil {
		return storeExit("load failed", err)
	}
	after, err := s.store.Count(ctx)
	if err != nil {
		return storeExit("count failed", err)
	}

	result := LoadResult{Read: len(ts), Inserted: after - before, Total: after}
	s.logger.Info("load complete", "file", path, "read", result.Read, "inserted", result.Inserted)
	return opts.formatter(cmd).Success(result,
		fmt.Sprintf("loaded %d triples (%d new, %d total)", result.Read, result.Inserted, result.Total))
}
