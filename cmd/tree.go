package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"logmerge/pkg/bundle"
)

func newTreeCmd(a *app) *cobra.Command {
	treeCmd := &cobra.Command{
		Use:   "tree [dir]",
		Short: "Print the extracted working directory as a tree",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.WorkDir
			if len(args) == 1 {
				dir = args[0]
			}
			tree, err := bundle.RenderTree(dir)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree)
			return nil
		},
	}
	treeCmd.Flags().StringP("workdir", "w", bundle.DefaultWorkDir, "Working directory to print")
	return treeCmd
}
