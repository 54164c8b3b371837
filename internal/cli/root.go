// Package cli wires the bitmap codec and filters into the go-bmp command line.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/peterbourgon/ff/v3/ffyaml"
	"go.uber.org/zap"
)

// EnvPrefix prefixes the environment variables every flag can be set with,
// e.g. BMP_DEBUG=true or BMP_CONCURRENCY=8.
const EnvPrefix = "BMP"

// Root holds the state shared by all commands.
type Root struct {
	Stdout io.Writer
	// Logger overrides the logger built from the -debug flag.
	Logger *zap.Logger

	debug      bool
	loggerOnce sync.Once
	loggerErr  error
}

// New returns a Root writing to stdout.
func New(stdout io.Writer) *Root {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Root{Stdout: stdout}
}

func (r *Root) logger() (*zap.Logger, error) {
	r.loggerOnce.Do(func() {
		if r.Logger != nil {
			return
		}
		if r.debug {
			r.Logger, r.loggerErr = zap.NewDevelopment()
		} else {
			r.Logger, r.loggerErr = zap.NewProduction()
		}
	})
	return r.Logger, r.loggerErr
}

func subcommandOptions() []ff.Option {
	return []ff.Option{ff.WithEnvVarPrefix(EnvPrefix)}
}

// Command builds the command tree.
func (r *Root) Command() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp", flag.ContinueOnError)
	fs.BoolVar(&r.debug, "debug", false, "Debug mode")
	_ = fs.String("config", "", "Retrieve configuration from the given YAML file")

	root := &ffcli.Command{
		Name:       "go-bmp",
		ShortUsage: "go-bmp [flags] <subcommand> [flags] [args...]",
		ShortHelp:  "Read, write and transform 24 and 32 bit BMP images",
		FlagSet:    fs,
		Options: []ff.Option{
			ff.WithEnvVarPrefix(EnvPrefix),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithAllowMissingConfigFile(true),
			ff.WithIgnoreUndefined(true),
		},
		Subcommands: []*ffcli.Command{
			r.infoCommand(),
			r.viewCommand(),
			r.createCommand(),
			r.invertCommand(),
			r.filterCommand(),
			r.cropCommand(),
			r.convertCommand(),
		},
	}
	root.Exec = func(context.Context, []string) error {
		fmt.Fprintln(fs.Output(), ffcli.DefaultUsageFunc(root))
		return flag.ErrHelp
	}
	return root
}

// Run parses args and runs the selected command.
func (r *Root) Run(ctx context.Context, args []string) error {
	err := r.Command().ParseAndRun(ctx, args)
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
	return err
}
