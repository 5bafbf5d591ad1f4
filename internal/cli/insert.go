package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tristore/internal/triple"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	Object valueFlags
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <subject> <predicate> <object>",
		Short: "Insert one triple",
		Long: `Insert one triple and print its content ID.

Subjects use the node text form: <iri>, _:b12 or #hex. The object is read
according to --kind.

Exit codes:
  0 - Inserted
  1 - Identical content already stored
  2 - Invalid arguments or storage failure

Examples:
  tristore insert "<ex:alice>" foaf:knows "<ex:bob>" --kind node
  tristore insert "<ex:alice>" ex:has_name Alice --lang en
  tristore insert "<ex:alice>" ex:has_age 30 --kind integer`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, args, cmd)
		},
	}

	opts.Object.register(cmd.Flags())

	return cmd
}

func runInsert(opts *InsertOptions, args []string, cmd *cobra.Command) error {
	subject, err := triple.ParseNode(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid subject", err)
	}
	object, err := opts.Object.parse(args[2])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid object", err)
	}
	t := triple.New(subject, triple.Predicate(args[1]), object)

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	id, err := s.store.Insert(cmd.Context(), t)
	if err != nil {
		return storeExit("insert failed", err)
	}

	f := opts.formatter(cmd)
	f.VerboseLog("inserted %s", t)
	return f.Success(map[string]string{"id": id.Hex()}, fmt.Sprintf("inserted %s", id.Hex()))
}
