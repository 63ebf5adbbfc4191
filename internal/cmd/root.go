package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/cocoprune/internal/coco"
	"github.com/Iron-Ham/cocoprune/internal/config"
	"github.com/Iron-Ham/cocoprune/internal/errors"
	"github.com/Iron-Ham/cocoprune/internal/logging"
	"github.com/Iron-Ham/cocoprune/internal/report"
)

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"output.format": "format",
	"output.indent": "indent",
	"logging.dir":   "log-dir",
	"logging.level": "log-level",
}

type rootOptions struct {
	verbose bool
	dryRun  bool
}

// Execute runs the root command against the real filesystem.
func Execute() error {
	return execute(newRootCmd(afero.NewOsFs()))
}

// execute runs root and prints any failure as a single line on its error
// stream. Cobra's own error and usage printing is silenced.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", errors.SingleLine(err))
	}
	return err
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cocoprune <annotation_file> <category_ids> [output_file]",
		Short: "Remove categories and their annotations from a COCO annotation file",
		Long: `cocoprune removes a set of categories, and every annotation that references
them, from a COCO-format annotation file.

Category IDs are given as a comma-separated list. When no output file is
given the annotation file is overwritten in place (compact JSON); a separate
output file is written indented.`,
		Example: `  # Remove categories 0 and 39, save to new file
  cocoprune annotations.json "0,39" cleaned_annotations.json

  # Remove categories 0 and 39, overwrite original file
  cocoprune annotations.json "0,39"

  # Remove single category and list what was removed
  cocoprune -v annotations.json "5" cleaned_annotations.json`,
		Args:          validateArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, fs, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print detailed information about what was removed")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Filter and report without writing any file")
	flags.StringP("config", "c", "", fmt.Sprintf("config file (default is %s)", config.ConfigFile()))
	flags.StringP("format", "f", "text", "Summary format: text, json or yaml")
	flags.Int("indent", 2, "Spaces of indentation when writing to a separate output file")
	flags.String("log-dir", "", "Directory for the JSON debug log (disabled when empty)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewArgumentError(err.Error())
	})

	return cmd
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.RangeArgs(2, 3)(cmd, args); err != nil {
		return errors.NewArgumentError(err.Error())
	}
	return nil
}

func runClean(cmd *cobra.Command, fs afero.Fs, opts *rootOptions, args []string) error {
	src := args[0]

	set, err := coco.ParseRemovalSet(args[1])
	if err != nil {
		return err
	}

	var dst string
	if len(args) > 2 {
		dst = args[2]
	}

	cfg, err := initConfig(cmd, fs)
	if err != nil {
		return err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Dir != "" {
		logger, err = logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return err
		}
	}
	defer logger.Close()

	cleaner := coco.NewCleaner(coco.NewStore(fs, cfg.Output.Atomic), logger)
	stats, err := cleaner.Clean(src, set, coco.Options{
		Output:        dst,
		Indent:        cfg.Output.Indent,
		PrettyInPlace: cfg.Output.PrettyInPlace,
		DryRun:        opts.dryRun,
	})
	if err != nil {
		logger.Error("run failed", "error", err.Error(), "severity", errors.GetSeverity(err).String())
		return err
	}

	return report.Write(cmd.OutOrStdout(), stats, report.Options{
		Format:  cfg.Output.Format,
		Verbose: opts.verbose,
	})
}

// initConfig resets viper, layers defaults, config file, environment and
// flags, and returns the validated result. The config file is read from fs.
// A missing default config file is not an error; a missing --config file is.
func initConfig(cmd *cobra.Command, fs afero.Fs) (*config.Config, error) {
	viper.Reset()
	viper.SetFs(fs)
	config.SetDefaults()

	flags := cmd.Flags()
	for key, name := range flagBindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix("COCOPRUNE")
	// e.g. COCOPRUNE_OUTPUT_PRETTY_IN_PLACE for output.pretty_in_place
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	return config.Load()
}
