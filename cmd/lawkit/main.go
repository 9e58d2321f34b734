// Package main is the entry point for the lawkit statute checker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/lawkit/internal/config"
	"github.com/dshills/lawkit/internal/dsl/ast"
	dslparser "github.com/dshills/lawkit/internal/dsl/parser"
	"github.com/dshills/lawkit/internal/logging"
	"github.com/dshills/lawkit/internal/metrics"
	"github.com/dshills/lawkit/internal/parser"
	"github.com/dshills/lawkit/internal/parser/cache"
	"github.com/dshills/lawkit/internal/rules"
	"github.com/dshills/lawkit/internal/validate"
	"github.com/dshills/lawkit/internal/watch"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return 2
	}

	switch os.Args[1] {
	case "check":
		return runCheck(os.Args[2:])
	case "watch":
		return runWatch(os.Args[2:])
	case "version":
		fmt.Println("lawkit", version)
		return 0
	default:
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: lawkit <command> [flags] <file>

commands:
  check    parse and validate a statute file once
  watch    re-check a statute file on every change
  version  print version`)
}

// newParser builds the caching parser from configuration.
func newParser(cfg config.Config) *parser.CachingParser {
	if cfg.Cache.MaxAge() > 0 {
		return parser.NewCaching(dslparser.New(), cfg.Cache.MaxSize,
			cache.WithMaxAge[*ast.Document](cfg.Cache.MaxAge()))
	}
	return parser.NewCaching(dslparser.New(), cfg.Cache.MaxSize)
}

// loadRules builds the lint engine when a rules dir is configured.
// A nil return disables linting.
func loadRules(dir string) (*rules.Engine, error) {
	if dir == "" {
		return nil, nil
	}
	e := rules.NewEngine()
	if err := e.LoadDir(dir); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to lawkit config file")
	rulesDir := fs.String("rules", "", "directory of Lua lint rules (overrides config)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lawkit check [flags] <file>")
		return 2
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *rulesDir != "" {
		cfg.Rules.Dir = *rulesDir
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	p := newParser(cfg)
	doc, err := p.ParseDocument(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("%s: %d statute(s)\n", path, doc.Len())

	for _, w := range p.Warnings() {
		fmt.Printf("warning: %s\n", w)
	}

	failed := false

	var verrs *validate.ValidationErrors
	if err := validate.New().ValidateDocument(doc); errors.As(err, &verrs) {
		for _, issue := range verrs.Issues {
			fmt.Printf("error: %s\n", issue)
		}
		failed = true
	}

	engine, err := loadRules(cfg.Rules.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if engine != nil {
		defer engine.Close()
		findings, err := engine.Check(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		for _, f := range findings {
			fmt.Printf("lint: %s\n", f)
		}
	}

	if failed {
		return 1
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to lawkit config file")
	rulesDir := fs.String("rules", "", "directory of Lua lint rules (overrides config)")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lawkit watch [flags] <file>")
		return 2
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *rulesDir != "" {
		cfg.Rules.Dir = *rulesDir
	}

	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})

	opts := []watch.Option{
		watch.WithValidator(validate.New()),
		watch.WithLogger(log),
		watch.WithDebounce(cfg.Watch.Debounce()),
	}

	engine, err := loadRules(cfg.Rules.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if engine != nil {
		defer engine.Close()
		opts = append(opts, watch.WithRules(engine))
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, watch.WithMetrics(metrics.New(reg)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	svc, err := watch.New(path, newParser(cfg), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("file", path).Msg("watching for changes")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
