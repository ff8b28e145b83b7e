package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/openclearing/epinflow/internal/epin"
)

func printJob(jb *epin.ProcessingJob) {
	fmt.Printf("Job:      %s\n", jb.ID)
	fmt.Printf("File:     %s (%d bytes)\n", jb.Filename, jb.FileSize)
	fmt.Printf("Status:   %s\n", jb.Status)
	if jb.ReportFormat != "" {
		fmt.Printf("Format:   %s\n", jb.ReportFormat)
	}
	if jb.ClientID != "" {
		fmt.Printf("Client:   %s\n", jb.ClientID)
	}
	fmt.Printf("Records:  %d total, %d processed, %d failed\n",
		jb.TotalRecords, jb.ProcessedRecords, jb.FailedRecords)
	if jb.RetryCount > 0 {
		fmt.Printf("Retries:  %d of %d\n", jb.RetryCount, jb.MaxRetries)
	}
	if jb.ProcessingStartedAt != nil && jb.ProcessingCompletedAt != nil {
		fmt.Printf("Duration: %s\n", jb.ProcessingCompletedAt.Sub(*jb.ProcessingStartedAt).Round(time.Millisecond))
	}
	if jb.ErrorSummary != "" {
		fmt.Printf("Errors:\n%s\n", jb.ErrorSummary)
	}
}

func printJobTable(jobs []*epin.ProcessingJob) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSTATUS\tRECORDS\tFAILED\tCREATED")
	for _, jb := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			jb.ID, jb.Filename, jb.Status, jb.TotalRecords, jb.FailedRecords,
			jb.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
