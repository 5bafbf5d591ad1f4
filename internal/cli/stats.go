package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			st, err := s.store.Stats(cmd.Context())
			if err != nil {
				return storeExit("stats failed", err)
			}
			text := fmt.Sprintf("backend:    %s\ntriples:    %d\nsubjects:   %d\npredicates: %d\nobjects:    %d\nsize:       %d bytes",
				st.Backend, st.Triples, st.Subjects, st.Predicates, st.Objects, st.SizeBytes)
			return rootOpts.formatter(cmd).Success(st, text)
		},
	}
}
