package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override flags,
// e.g. LISPUI_FORMAT=json.
const EnvPrefix = "LISPUI"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file, default .lispui.yaml in the working directory

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the logger commands hand to mounts: debug level when
// verbose, warnings otherwise, always on stderr.
func (o *RootOptions) Logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Setting returns a command setting from flags, environment or the
// config file, in that order.
func (o *RootOptions) Setting(key string) string {
	if o.viper == nil {
		return ""
	}
	return o.viper.GetString(key)
}

// NewRootCommand creates the root command for the lispui CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "lispui",
		Short: "lispui - Lisp templates for reactive markup",
		Long: `Compile parenthesized templates into element trees or HTML, mount
them on a reactive store and keep the rendered document patched.

Settings may also come from LISPUI_* environment variables or a
.lispui.yaml config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(opts, cmd); err != nil {
				return newFormatter(opts, cmd).Fail(ExitCommandError, ErrCodeBadFlag, err.Error())
			}
			if !isValidFormat(opts.Format) {
				format := opts.Format
				opts.Format = "text"
				return newFormatter(opts, cmd).Fail(ExitCommandError, ErrCodeBadFlag,
					fmt.Sprintf("invalid format %q: must be one of %v", format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default .lispui.yaml)")

	cmd.AddCommand(NewTokensCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}

// initConfig layers flags over LISPUI_* environment variables over the
// config file, then copies the global settings back into opts.
//
// A missing default config file is not an error; an explicit --config
// that cannot be read is.
func initConfig(opts *RootOptions, cmd *cobra.Command) error {
	v := opts.viper
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	switch {
	case opts.Config != "":
		v.SetConfigFile(opts.Config)
	case os.Getenv(EnvPrefix+"_CONFIG") != "":
		v.SetConfigFile(os.Getenv(EnvPrefix + "_CONFIG"))
	default:
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".lispui")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	opts.Format = v.GetString("format")
	opts.Verbose = v.GetBool("verbose")
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
