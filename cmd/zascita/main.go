package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/config"
	"github.com/erazemk/zascita/internal/logger"
)

const usage = `Usage: zascita [command] [flags]

Commands:
  serve      run the API server (default)
  init       create and migrate the database and an admin account
  migrate    apply pending database migrations and exit

Flags:
  -c, -config <path>      YAML config file (default: none, env and defaults only)
  -a, -addr <host:port>   listen address (overrides server.addr)
  -d, -db <dsn>           database DSN or SQLite path (overrides database.dsn)
  -u, -user <name>        admin username for init (default: Admin)
  -l, -log <path>         log file path (overrides log.file)
  -h, -help               show this help and exit
`

type options struct {
	command    string
	configPath string
	addr       string
	dsn        string
	adminUser  string
	logPath    string
}

// parseArgs splits an optional leading command from the flags.
func parseArgs(args []string) (*options, error) {
	opts := &options{command: "serve"}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		opts.command = args[0]
		args = args[1:]
	}
	switch opts.command {
	case "serve", "init", "migrate":
	default:
		return nil, fmt.Errorf("unknown command: %s", opts.command)
	}

	fs := flag.NewFlagSet("zascita", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	fs.StringVar(&opts.configPath, "config", "", "")
	fs.StringVar(&opts.configPath, "c", "", "")
	fs.StringVar(&opts.addr, "addr", "", "")
	fs.StringVar(&opts.addr, "a", "", "")
	fs.StringVar(&opts.dsn, "db", "", "")
	fs.StringVar(&opts.dsn, "d", "", "")
	fs.StringVar(&opts.adminUser, "user", "Admin", "")
	fs.StringVar(&opts.adminUser, "u", "Admin", "")
	fs.StringVar(&opts.logPath, "log", "", "")
	fs.StringVar(&opts.logPath, "l", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return opts, nil
}

// apply overrides config values with the flags that were set.
func (o *options) apply(cfg *config.Config) error {
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.dsn != "" {
		cfg.Database.DSN = o.dsn
	}
	if o.logPath != "" {
		cfg.Log.File = o.logPath
	}
	return cfg.Validate()
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, usage)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.configPath)
	if err == nil {
		err = opts.apply(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	switch opts.command {
	case "init":
		err = runInit(cfg, opts.adminUser, log)
	case "migrate":
		err = runMigrate(cfg, log)
	default:
		err = runServe(cfg, opts.adminUser, log)
	}
	if err != nil {
		log.Error("fatal", zap.String("command", opts.command), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
