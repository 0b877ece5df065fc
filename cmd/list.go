package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-sentiment/store"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			ids, err := st.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				_, err := st.ReadResultText(id)
				switch {
				case err == nil:
					fmt.Fprintln(out, id)
				case errors.Is(err, store.ErrNotFound):
					fmt.Fprintf(out, "%s\t(no result)\n", id)
				default:
					return err
				}
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the result text of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			text, err := st.ReadResultText(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
