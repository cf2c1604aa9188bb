package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Yates-Labs/spoke/internal/export"
	"github.com/Yates-Labs/spoke/internal/render"
	"github.com/Yates-Labs/spoke/internal/warehouse"
	"github.com/spf13/cobra"
)

var (
	exportFile string
	rowLimit   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [hourly|weather|stations]",
	Short: "Query a trip-history dataset and display it",
	Long: `Run one of the fixed warehouse queries and display the result.

Datasets:
- hourly    trips and average duration per hour
- weather   trips per weather condition
- stations  top 100 start stations with coordinates

Examples:
  spoke analyze hourly
  spoke analyze weather --export weather.json
  spoke analyze stations --export stations.xlsx`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: warehouse.Datasets,
	RunE:      runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&exportFile, "export", "", "Export the dataset to a .json or .xlsx file: --export <filename>")
	analyzeCmd.Flags().IntVar(&rowLimit, "limit", 50, "Maximum rows to print (0 for all)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	dataset := strings.ToLower(args[0])
	ctx := cmd.Context()

	deps, err := buildAnalytics(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	defer deps.Close()

	table, err := deps.loader.Load(ctx, dataset)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if table.Empty() {
		fmt.Println(render.Notice(render.NoticeWarning, fmt.Sprintf("No %s data available", dataset)))
		return nil
	}

	// Handle export flag
	if exportFile != "" {
		return handleExport(table, exportFile)
	}

	fmt.Println(render.DataTable(table.Columns, table.Records(), rowLimit))
	fmt.Println(render.MutedStyle.Render(fmt.Sprintf("%d rows", table.Len())))
	return nil
}

func handleExport(table warehouse.Table, filename string) error {
	format := export.FormatFromPath(filename)
	if f := export.Format(format); f != export.FormatJSON && f != export.FormatXLSX {
		return fmt.Errorf("export failed: unsupported export format: %q (supported: json, xlsx)", format)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := export.ExportTable(table, format, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(render.Notice(render.NoticeSuccess, fmt.Sprintf("Exported %d rows to %s", table.Len(), filename)))
	return nil
}
