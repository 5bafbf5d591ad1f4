package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tristore/internal/triple"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a triple by content ID",
		Long: `Fetch a triple by its hex content ID.

Exit codes:
  0 - Found
  1 - No triple with that ID
  2 - Invalid ID or storage failure`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], cmd)
		},
	}
}

func runGet(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	id, err := triple.ParseID(rawID)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid id", err)
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	t, err := s.store.Get(cmd.Context(), id)
	if err != nil {
		return storeExit("get failed", err)
	}
	if t == nil {
		return &ExitError{Code: ExitFailure, Kind: CodeNotFound, Message: fmt.Sprintf("no triple %s", id.Hex())}
	}
	return opts.formatter(cmd).Success(viewOf(*t), t.String())
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a triple by content ID",
		Long: `Delete a triple by its hex content ID. Deleting an absent ID is not
an error; the output reports whether anything was removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
}

func runDelete(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	id, err := triple.ParseID(rawID)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid id", err)
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	existed, err := s.store.Delete(cmd.Context(), id)
	if err != nil {
		return storeExit("delete failed", err)
	}

	text := fmt.Sprintf("deleted %s", id.Hex())
	if !existed {
		text = fmt.Sprintf("no triple %s", id.Hex())
	}
	return opts.formatter(cmd).Success(map[string]any{"id": id.Hex(), "deleted": existed}, text)
}
