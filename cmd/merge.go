package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"logmerge/pkg/bundle"
)

func newMergeCmd(a *app) *cobra.Command {
	mergeCmd := &cobra.Command{
		Use:   "merge <bundle.tar.gz>",
		Short: "Extract a local bundle and merge its log fragments",
		Long: `Extract a local .tar.gz bundle into the working directory, decompress the
.gz fragments it contains and concatenate the fragments matching --filter into
one output file. Fragment order follows the locator file when present.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := bundle.New(append(a.cfg.PipelineOptions(), bundle.WithLogger(a.logger))...)
			result, err := p.Run(cmd.Context(), bundle.NewBundle(args[0]))
			if err != nil {
				return err
			}
			return a.finish(cmd.OutOrStdout(), p, result)
		},
	}
	addPipelineFlags(mergeCmd.Flags())
	return mergeCmd
}

// addPipelineFlags registers the flags shared by merge and pull.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.StringP("filter", "f", "", "Only merge fragments whose name contains this pattern (* and ? allowed)")
	fs.StringP("output", "o", "", "Merged file name (default <bundle>"+bundle.DefaultOutputSuffix+")")
	fs.StringP("workdir", "w", bundle.DefaultWorkDir, "Directory receiving extracted files")
	fs.StringP("locator", "l", bundle.DefaultLocatorName, "Name of the locator file inside the bundle")
	fs.String("suffix", bundle.DefaultOutputSuffix, "Suffix of the default merged file name")
	fs.String("separator", "", `Text written between fragments (\n and \t are expanded)`)
	fs.Bool("sort", false, "Order fragments not named by the locator lexically instead of by archive order")
	fs.Bool("include-locator", false, "Merge the locator file too when the filter matches it")
	fs.Bool("purge", false, "Delete compressed fragments after decompressing them")
	fs.IntP("workers", "j", 0, "Parallel fragment decompression (default number of CPUs)")
	fs.String("report", "", "Write a YAML merge report to this file")
	fs.Bool("tree", false, "Print the working directory tree after merging")
}

// finish writes the optional report and tree, then prints a summary.
func (a *app) finish(out io.Writer, p *bundle.Pipeline, result *bundle.MergeResult) error {
	if a.cfg.Report != "" {
		if err := bundle.WriteReport(result, a.cfg.Report); err != nil {
			return err
		}
		a.logger.Info("Wrote merge report", zap.String("report", a.cfg.Report))
	}
	if a.cfg.Tree {
		tree, err := bundle.RenderTree(p.WorkDir())
		if err != nil {
			return err
		}
		fmt.Fprint(out, tree)
	}
	if !result.LocatorFound {
		fmt.Fprintf(out, "locator %q not found, fragments kept in archive order\n", a.cfg.Locator)
	}
	fmt.Fprintf(out, "merged %d fragment(s), %d bytes -> %s\n", len(result.Sources), result.TotalBytes, result.OutputPath)
	return nil
}
