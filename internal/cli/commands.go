package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/smarttools/internal/core"
)

func (a *app) mergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge files in the order given.",
	}

	cmd.AddCommand(
		a.mergeSubcommand("pdf", core.OpMergePDF, "Combine PDF files into one document.", false),
		a.mergeSubcommand("csv", core.OpMergeCSV, "Append the rows of CSV files into one CSV.", true),
		a.mergeSubcommand("excel", core.OpMergeExcel, "Stack the rows of .xlsx files into one sheet.", true),
	)
	return cmd
}

func (a *app) mergeSubcommand(name string, kind core.OpKind, short string, tabular bool) *cobra.Command {
	var (
		output string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   name + " [flags] {files}",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			return a.run(cmd, kind, files, output, core.Options{Strict: strict})
		},
	}

	addOutputFlag(cmd.Flags(), &output)
	if tabular {
		cmd.Flags().BoolVar(&strict, "strict", false, "fail when files have different columns instead of filling empty cells")
	}
	return cmd
}

func (a *app) convertCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert [flags] {file}",
		Short: "Convert a CSV file to Excel, or the first sheet of a workbook to CSV.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := convertKind(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, kind, args, output, core.Options{})
		},
	}

	addOutputFlag(cmd.Flags(), &output)
	return cmd
}

// convertKind picks the conversion direction from the input extension.
func convertKind(path string) (core.OpKind, error) {
	format, err := core.FormatFromName(path)
	if err != nil {
		return 0, err
	}
	if format == core.FormatCSV {
		return core.OpCSVToExcel, nil
	}
	return core.OpExcelToCSV, nil
}

func (a *app) splitCommand() *cobra.Command {
	var (
		output string
		rows   int
	)

	cmd := &cobra.Command{
		Use:   "split [flags] {file}",
		Short: "Split a CSV or Excel file into a ZIP of parts with --rows data rows each.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 1 {
				return fmt.Errorf("--rows %d: %w", rows, core.ErrInvalidChunkSize)
			}
			return a.run(cmd, core.OpSplit, args, output, core.Options{RowsPerFile: rows})
		},
	}

	addOutputFlag(cmd.Flags(), &output)
	cmd.Flags().IntVarP(&rows, "rows", "r", core.DefaultRowsPerFile, "data rows per part")
	return cmd
}
