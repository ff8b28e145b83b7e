package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// processCmd submits an EPIN file and processes it to completion.
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Submit an EPIN settlement file for processing",
	Long: `Read an EPIN settlement file, store its content, parse every record
into the record store and print the resulting job. The command blocks until
processing finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if !quiet {
		fmt.Printf("Processing %s (%d bytes)...\n", path, len(content))
	}

	jb, err := a.jobs.Submit(cmd.Context(), filepath.Base(path), content, int64(len(content)))
	if jb != nil {
		a.reports.Invalidate()
		printJob(jb)
	}
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	return nil
}
