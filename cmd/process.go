package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-sentiment/orchestrator"
)

func newProcessCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "process",
		Short: "Run one pipeline flow and store its artifact",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "audio <file.wav>",
			Short: "Transcribe and score an audio clip",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				p, _, providers, err := a.pipeline(cmd.Context())
				if err != nil {
					return err
				}
				defer providers.Close()

				ref, err := p.ProcessAudioUpload(cmd.Context(), data, filepath.Base(args[0]))
				if err != nil {
					return err
				}
				return printRef(cmd, ref)
			},
		},
		&cobra.Command{
			Use:   "text <text>...",
			Short: "Score a text and synthesize it to speech",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, _, providers, err := a.pipeline(cmd.Context())
				if err != nil {
					return err
				}
				defer providers.Close()

				ref, err := p.ProcessTextSubmission(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printRef(cmd, ref)
			},
		},
	)
	return c
}

func printRef(cmd *cobra.Command, ref *orchestrator.ArtifactRef) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(ref); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
