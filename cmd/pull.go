package cmd

import (
	"github.com/spf13/cobra"

	"logmerge/pkg/bundle"
	"logmerge/pkg/fetch"
)

func newPullCmd(a *app) *cobra.Command {
	pullCmd := &cobra.Command{
		Use:   "pull <name>",
		Short: "Pull a bundle from the attached device, then merge it",
		Long: `Pull the named bundle from the device's log directory into the working
directory and merge it as the merge command would. A name that exists as a
local file is used directly.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			puller := fetch.NewDevicePuller(nil, a.cfg.Fetch.Tool, a.cfg.Fetch.RemoteDir, a.logger)
			if a.cfg.Fetch.RetryMaxElapsed > 0 {
				puller.MaxElapsed = a.cfg.Fetch.RetryMaxElapsed
			}

			p := bundle.New(append(a.cfg.PipelineOptions(), bundle.WithLogger(a.logger))...)
			result, err := p.RunRemote(cmd.Context(), puller, args[0])
			if err != nil {
				return err
			}
			return a.finish(cmd.OutOrStdout(), p, result)
		},
	}
	addPipelineFlags(pullCmd.Flags())
	pullCmd.Flags().String("tool", fetch.DefaultTool, "Device bridge executable used to pull bundles")
	pullCmd.Flags().String("remote-dir", fetch.DefaultRemoteDir, "Directory on the device holding bundles")
	pullCmd.Flags().Duration("retry-max-elapsed", fetch.DefaultMaxElapsed, "Give up retrying transient pull failures after this long")
	return pullCmd
}
