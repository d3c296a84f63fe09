// Package cmd holds the CLI surface: cobra commands, flag handling and the
// configuration sandwich (defaults, config file, environment, flags).
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kartoza/gsh-benchmarker/errext"
)

//nolint:gochecknoglobals
var (
	stdoutTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	stderrTTY = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
)

// rootCommand keeps the state shared by the subcommands.
type rootCommand struct {
	ctx    context.Context
	logger *logrus.Logger
	fs     afero.Fs
	cmd    *cobra.Command
	stdout *os.File

	verbose        bool
	noColor        bool
	logFmt         string
	configFilePath string
}

func newRootCommand(ctx context.Context, logger *logrus.Logger) *rootCommand {
	c := &rootCommand{
		ctx:    ctx,
		logger: logger,
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
	}
	c.cmd = &cobra.Command{
		Use:               "gsh-benchmarker",
		Short:             "load benchmarks for GeoServer map services",
		Long:              "Discovers the layers a map server publishes and sweeps them with ApacheBench load tests.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}
	c.cmd.PersistentFlags().AddFlagSet(c.rootCmdPersistentFlagSet())
	return c
}

func (c *rootCommand) persistentPreRunE(*cobra.Command, []string) error {
	c.setupLogger()
	if c.noColor || !stdoutTTY {
		color.NoColor = true
	}
	return nil
}

func (c *rootCommand) setupLogger() {
	if c.verbose {
		c.logger.SetLevel(logrus.DebugLevel)
	}
	switch c.logFmt {
	case "json":
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		c.logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   stderrTTY && !c.noColor,
			DisableColors: c.noColor,
		})
	}
}

func (c *rootCommand) rootCmdPersistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&c.logFmt, "log-format", "", `log output format, "text" or "json"`)
	flags.StringVarP(&c.configFilePath, "config", "c", os.Getenv("GSH_CONFIG"), "JSON or YAML config file")
	must(cobra.MarkFlagFilename(flags, "config"))
	return flags
}

// Execute runs the CLI. It is called once, from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := &logrus.Logger{
		Out:       colorable.NewColorableStderr(),
		Formatter: new(logrus.TextFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.InfoLevel,
	}

	c := newRootCommand(ctx, logger)
	c.cmd.AddCommand(
		getLayersCmd(c),
		getCheckCmd(c),
		getRunCmd(c),
		getResultsCmd(c),
		getVersionCmd(c),
	)

	if err := c.cmd.Execute(); err != nil {
		code := errext.GenericError
		var ecerr errext.HasExitCode
		if errors.As(err, &ecerr) {
			code = ecerr.ExitCode()
		}
		logger.Error(err)
		stop()
		os.Exit(int(code)) //nolint:gocritic
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
