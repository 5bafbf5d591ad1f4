package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tristore/internal/triple"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Subject   string
	Predicate string
	Object    string
	Kind      valueFlags
	Explain   bool
}

// FindResult is the JSON payload of find.
type FindResult struct {
	Pattern string       `json:"pattern"`
	Route   string       `json:"route"`
	Count   int          `json:"count"`
	Triples []tripleView `json:"triples"`
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find triples matching a pattern",
		Long: `Find triples matching a pattern. Unset components are wildcards; with
none set, every stored triple is returned.

Examples:
  tristore find --subject "<ex:alice>"
  tristore find --predicate ex:has_age --object 30 --kind integer
  tristore find --object "<ex:bob>" --kind node --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Subject, "subject", "s", "", "subject node")
	cmd.Flags().StringVarP(&opts.Predicate, "predicate", "p", "", "predicate")
	cmd.Flags().StringVarP(&opts.Object, "object", "o", "", "object, read according to --kind")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "report which index ordering serves the pattern")
	opts.Kind.register(cmd.Flags())

	return cmd
}

func (o *FindOptions) pattern(objectSet bool) (triple.Pattern, error) {
	var pat triple.Pattern
	if o.Subject != "" {
		s, err := triple.ParseNode(o.Subject)
		if err != nil {
			return pat, fmt.Errorf("subject: %w", err)
		}
		pat.Subject = &s
	}
	if o.Predicate != "" {
		p := triple.Predicate(o.Predicate)
		pat.Predicate = &p
	}
	if objectSet {
		v, err := o.Kind.parse(o.Object)
		if err != nil {
			return pat, err
		}
		pat.Object = v
	}
	return pat, nil
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	pat, err := opts.pattern(cmd.Flags().Changed("object") || opts.Kind.Kind == "null")
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid pattern", err)
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ts, err := s.store.Find(cmd.Context(), pat)
	if err != nil {
		return storeExit("find failed", err)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })

	result := FindResult{
		Pattern: pat.String(),
		Route:   s.store.Explain(pat).String(),
		Count:   len(ts),
		Triples: make([]tripleView, len(ts)),
	}
	lines := make([]string, 0, len(ts)+1)
	if opts.Explain {
		lines = append(lines, fmt.Sprintf("# route: %s", result.Route))
	}
	for i, t := range ts {
		result.Triples[i] = viewOf(t)
		lines = append(lines, t.String())
	}

	f := opts.formatter(cmd)
	f.VerboseLog("%d triples match %s", len(ts), result.Pattern)
	return f.Success(result, strings.Join(lines, "\n"))
}
