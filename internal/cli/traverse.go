package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tristore/internal/triple"
)

// TraverseResult is the JSON payload of traverse.
type TraverseResult struct {
	Start      string   `json:"start"`
	Predicates []string `json:"predicates,omitempty"`
	Nodes      []string `json:"nodes"`
}

// NewTraverseCommand creates the traverse command.
func NewTraverseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "traverse <start> [predicate...]",
		Short: "List nodes reachable from a start node",
		Long: `Walk node-valued objects depth first from start and print every
reachable node once, in discovery order. The start node itself is never
listed. With predicates, only those edges are followed.

Examples:
  tristore traverse "<ex:alice>"
  tristore traverse "<ex:alice>" foaf:knows`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraverse(rootOpts, args, cmd)
		},
	}
}

func runTraverse(opts *RootOptions, args []string, cmd *cobra.Command) error {
	start, err := triple.ParseNode(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid start node", err)
	}
	preds := make([]triple.Predicate, len(args)-1)
	for i, p := range args[1:] {
		preds[i] = triple.Predicate(p)
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	nodes, err := s.store.Traverse(cmd.Context(), start, preds...)
	if err != nil {
		return storeExit("traverse failed", err)
	}

	result := TraverseResult{Start: start.String(), Predicates: args[1:], Nodes: make([]string, len(nodes))}
	for i, n := range nodes {
		result.Nodes[i] = n.String()
	}
	return opts.formatter(cmd).Success(result, strings.Join(result.Nodes, "\n"))
}
