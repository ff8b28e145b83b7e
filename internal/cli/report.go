package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

var (
	// Report filter flags
	reportStartDate string
	reportEndDate   string
	reportCurrency  string
	reportDestPfx   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build settlement reports from stored records",
	Long: `Build one of the hierarchical settlement reports over the records
currently in the store. Filters restrict the records folded into the report;
an unfiltered report covers everything.`,
}

var reportVss110Cmd = &cobra.Command{
	Use:   "vss110",
	Short: "Settlement summary statistics (VSS-110)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "vss110")
	},
}

var reportVss120Cmd = &cobra.Command{
	Use:   "vss120",
	Short: "Interchange value report (VSS-120)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "vss120")
	},
}

var reportVss130Cmd = &cobra.Command{
	Use:   "vss130",
	Short: "Reimbursement fees report (VSS-130)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "vss130")
	},
}

var reportVss140Cmd = &cobra.Command{
	Use:   "vss140",
	Short: "Charges report (VSS-140)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, "vss140")
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportVss110Cmd)
	reportCmd.AddCommand(reportVss120Cmd)
	reportCmd.AddCommand(reportVss130Cmd)
	reportCmd.AddCommand(reportVss140Cmd)

	reportCmd.PersistentFlags().StringVar(&reportStartDate, "start", "", "earliest settlement date (YYYY-MM-DD)")
	reportCmd.PersistentFlags().StringVar(&reportEndDate, "end", "", "latest settlement date (YYYY-MM-DD)")
	reportCmd.PersistentFlags().StringVar(&reportCurrency, "currency", "", "settlement currency code")
	reportCmd.PersistentFlags().StringVar(&reportDestPfx, "destination", "", "destination id prefix")
}

func runReport(cmd *cobra.Command, kind string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	ctx := cmd.Context()
	var tree interface{}
	switch kind {
	case "vss110":
		tree, err = a.reports.Vss110Stats(ctx, filter)
	case "vss120":
		tree, err = a.reports.Vss120Report(ctx, filter)
	case "vss130":
		tree, err = a.reports.Vss130Report(ctx, filter)
	case "vss140":
		tree, err = a.reports.Vss140Report(ctx, filter)
	}
	if err != nil {
		return err
	}
	return printJSON(tree)
}

func buildFilter() (recorddb.Filter, error) {
	var f recorddb.Filter

	if reportStartDate != "" {
		t, err := time.Parse("2006-01-02", reportStartDate)
		if err != nil {
			return f, fmt.Errorf("invalid start date %q: %w", reportStartDate, err)
		}
		f.StartDate = &t
	}
	if reportEndDate != "" {
		t, err := time.Parse("2006-01-02", reportEndDate)
		if err != nil {
			return f, fmt.Errorf("invalid end date %q: %w", reportEndDate, err)
		}
		f.EndDate = &t
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, fmt.Errorf("end date %s precedes start date %s", reportEndDate, reportStartDate)
	}
	f.CurrencyCode = reportCurrency
	f.DestinationPrefix = reportDestPfx
	return f, nil
}
