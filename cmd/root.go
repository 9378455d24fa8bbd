package cmd

import (
	"github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"logmerge/pkg/config"
	"logmerge/pkg/logging"
	"logmerge/pkg/version"
)

// app carries state shared by the commands of one invocation.
type app struct {
	viper   *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// NewRootCmd builds the logmerge command tree.
func NewRootCmd() *cobra.Command {
	a := &app{viper: config.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "logmerge",
		Short: "logmerge extracts diagnostic bundles and merges their log fragments",
		Long: `logmerge unpacks a .tar.gz diagnostic bundle, decompresses the .gz log
fragments inside it and concatenates the selected fragments into a single file,
in the order given by the bundle's locator file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ./logmerge.yaml)")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(err, errors.CodeInvalidInput, "invalid flags")
	})

	root.AddCommand(
		newMergeCmd(a),
		newPullCmd(a),
		newTreeCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup resolves configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.viper, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.viper, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Setup(cfg.Debug, version.AppName, version.Get().Version); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to initialize logger")
	}
	a.logger = logging.Logger
	a.logger.Debug("Configuration loaded", zap.Any("config", cfg))
	return nil
}

// Execute runs the root command with os.Args and returns its error.
func Execute() error {
	root := NewRootCmd()
	// Logger is replaced during setup, so read it when the deferred call runs.
	defer func() { logging.Sync(logging.Logger) }()
	return root.Execute()
}

// usageArgs wraps an argument validator so its failures are reported as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return errors.Wrap(err, errors.CodeInvalidInput, "invalid arguments")
		}
		return nil
	}
}
