// vim: sw=8

// Command `cdds-archive` archives CMOR output in MASS and retrieves model
// output from MASS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cddsproject/cdds/backend/internal/config"
	"github.com/cddsproject/cdds/backend/pkg/flock"
	"github.com/cddsproject/cdds/backend/pkg/mulog"
	"github.com/cddsproject/cdds/backend/pkg/zap"
	"github.com/docopt/docopt-go"
)

// `xVersion` and `xBuild` are set with `go build -ldflags "-X main.xVersion=..."`.
var (
	xVersion string
	xBuild   string
	version  = fmt.Sprintf("cdds-archive-%s+%s", xVersion, xBuild)
)

// `qqBackticks()` translates double single quote to backtick.
func qqBackticks(s string) string {
	return strings.Replace(s, "''", "`", -1)
}

var usage = qqBackticks(strings.TrimSpace(`
Usage:
  cdds-archive [options] store [--simulate] [--data-version=<datestamp>]
  cdds-archive [options] classify [--data-version=<datestamp>]
  cdds-archive [options] cleanup [--simulate]
  cdds-archive [options] ls [<path>]
  cdds-archive [options] extract [--simulate] [--plan-only] [<streams>...]
  cdds-archive [options] info

Options:
  --config=<path>    [default: cdds.yml]
                     YAML configuration.  Files ending in ''.hcl'' are read
                     as HCL.
  --log=<logger>     [default: prod]
                     Logger: ''prod'', ''prod-debug'', ''dev'', or ''mu''.
  --gateway=<gw>     [default: moo]
                     MASS gateway: ''moo'' runs the MOOSE client; ''local:<dir>''
                     uses a directory tree that mirrors ''moose:/''.
  --lock=<path>      Hold an exclusive flock on ''<path>'' while running.
  --lock-wait=<duration>  [default: 5s]
                     Maximum time to wait for ''--lock''.
  --simulate         Log commands that modify MASS instead of running them.
  --data-version=<datestamp>  Datestamp ''vYYYYMMDD'' to publish under.
                     Overrides ''archive.dataVersion''.  The default is today.
  --plan-only        Only print the planned retrieval commands.

''cdds-archive store'' removes empty target directories left by earlier runs,
classifies every configured dataset against the data stored in MASS, and
archives the datasets whose state is valid.  Invalid datasets are logged
together with the reason.

Exit codes: 0 if all datasets are valid; 1 if any dataset is invalid; 2 if
the command failed.

''cdds-archive classify'' only classifies and reports, like ''store'' without
changing MASS.

''cdds-archive cleanup'' removes empty directories below the archive
directories of the configured datasets.

''cdds-archive ls'' lists the simulation archive directory or ''<path>''
recursively.

''cdds-archive extract'' retrieves the configured streams, or only
''<streams>...''.  Requests are split so that MASS accepts them.

''cdds-archive info'' reports whether MASS is available and which command
classes are enabled.
`))

type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
}

var lg Logger = mulog.Printer{}

func main() {
	args := argparse()

	var err error
	switch args["--log"].(string) {
	case "prod":
		lg, err = zap.NewProduction()
	case "prod-debug":
		lg, err = zap.NewProductionDebug()
	case "dev":
		lg, err = zap.NewDevelopment()
	case "mu":
		lg = mulog.Logger{}
	default:
		err = fmt.Errorf("Invalid --log option.")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFatal)
	}

	cfg, err := config.Load(args["--config"].(string))
	if err != nil {
		fatalw("Failed to load --config.", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM)
	signal.Notify(sigs, syscall.SIGINT)
	go func() {
		sig := <-sigs
		lg.Warnw("Received signal, cancelling.", "signal", sig)
		cancel()
	}()

	if path, ok := args["--lock"].(string); ok {
		unlock := mustLock(ctx, path, args["--lock-wait"].(time.Duration))
		defer unlock()
	}

	code := ExitOK
	switch {
	case args["store"].(bool):
		code = storeExitCode(cmdStore(ctx, args, cfg))
	case args["classify"].(bool):
		code = storeExitCode(cmdClassify(ctx, args, cfg))
	case args["cleanup"].(bool):
		cmdCleanup(ctx, args, cfg)
	case args["ls"].(bool):
		cmdLs(ctx, args, cfg)
	case args["extract"].(bool):
		cmdExtract(ctx, args, cfg)
	case args["info"].(bool):
		cmdInfo(ctx, args, cfg)
	default:
		panic("unhandled args")
	}

	if code != ExitOK {
		cancel()
		// Deferred unlock does not run after `os.Exit()`.  The kernel
		// releases the flock when the process exits.
		os.Exit(code)
	}
}

func argparse() map[string]interface{} {
	const autoHelp = true
	const noOptionFirst = false
	args, err := docopt.Parse(
		usage, nil, autoHelp, version, noOptionFirst,
	)
	if err != nil {
		fatalw("docopt failed.", "err", err)
	}

	for _, k := range []string{
		"--lock-wait",
	} {
		if arg, ok := args[k].(string); ok {
			v, err := time.ParseDuration(arg)
			if err != nil {
				msg := fmt.Sprintf("Invalid %s.", k)
				fatalw(msg, "err", err)
			}
			args[k] = v
		}
	}

	return args
}

func mustLock(
	ctx context.Context, path string, wait time.Duration,
) func() {
	lock, err := flock.Create(path)
	if err != nil {
		fatalw("Failed to open --lock.", "path", path, "err", err)
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := lock.TryLock(ctx, 500*time.Millisecond); err != nil {
		lock.Close()
		fatalw("Failed to acquire --lock.", "path", path, "err", err)
	}
	lg.Infow("Acquired lock.", "path", path)
	return func() {
		if err := lock.Unlock(); err != nil {
			lg.Warnw("Failed to unlock.", "path", path, "err", err)
		}
		lock.Close()
	}
}
