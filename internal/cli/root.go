// Package cli runs the Smart Tools operations from a terminal.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
)

// app carries what every subcommand needs. It is built in PersistentPreRunE
// once flags are parsed.
type app struct {
	logLevel   string
	noProgress bool

	service *core.Service
	logger  *slog.Logger
}

// NewRootCommand builds the smarttools command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "smarttools",
		Short: "Merge, convert and split PDF, CSV and Excel files.",
		Long: `smarttools runs the Smart Tools operations without the web UI:
merge PDFs or tables in the order given, convert between CSV and Excel,
and split a table into a ZIP of fixed-size parts.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.BoolVarP(&a.noProgress, "quiet", "q", false, "do not draw a progress bar")

	root.AddCommand(
		a.mergeCommand(),
		a.convertCommand(),
		a.splitCommand(),
	)
	return root
}

// Execute runs the root command and prints a user-facing error on failure.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", userError(err))
		slog.Debug("command failed", "error", err)
		return 1
	}
	return 0
}

// userError maps operation failures to their user message. Anything the
// message table does not know, such as a cobra usage error, is shown as is.
func userError(err error) string {
	if core.MapError(err).Code == "ERR000" {
		return err.Error()
	}
	return core.FormatUserError(err)
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.logger = logging.New(cmd.ErrOrStderr(), a.logLevel, "text")
	slog.SetDefault(a.logger)

	a.service = core.NewService(core.ServiceConfig{MaxConcurrentJobs: 1})
	return nil
}

// run loads the input files, runs kind over them and writes the artifact.
func (a *app) run(cmd *cobra.Command, kind core.OpKind, paths []string, output string, opts core.Options) error {
	def, ok := core.Get(kind)
	if !ok {
		return fmt.Errorf("%s: %w", kind, core.ErrUnknownOperation)
	}

	files, err := readInputs(paths)
	if err != nil {
		return err
	}
	if err := def.CheckBatch(files); err != nil {
		return err
	}

	var reporter core.Reporter = core.ReporterFuncs{}
	if !a.noProgress {
		reporter = newBarReporter(cmd.ErrOrStderr(), def.Label)
	}

	res, err := a.service.Run(cmd.Context(), kind, files, opts, reporter)
	if err != nil {
		return err
	}

	dest := outputPath(output, res.Artifact.Filename)
	if err := os.WriteFile(dest, res.Artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Summary)
	for _, n := range res.Notes {
		fmt.Fprintln(out, n)
	}
	fmt.Fprintf(out, "Wrote %s (%s)\n", dest, humanize.Bytes(uint64(res.Artifact.Size())))
	return nil
}

// readInputs reads each path into an UploadedFile named by its base name.
func readInputs(paths []string) ([]core.UploadedFile, error) {
	files := make([]core.UploadedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		files = append(files, core.UploadedFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// outputPath resolves -o: empty means the default name in the working
// directory, an existing directory receives the default name.
func outputPath(output, defaultName string) string {
	if output == "" {
		return defaultName
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, defaultName)
	}
	return output
}

func addOutputFlag(flags *pflag.FlagSet, target *string) {
	flags.StringVarP(target, "output", "o", "", "output file or directory (default is the tool's file name in the current directory)")
}
