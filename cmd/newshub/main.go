package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"newshub/pkg/cache"
	"newshub/pkg/config"
	"newshub/pkg/ingest"
	"newshub/pkg/news"
	"newshub/pkg/provider"
	"newshub/pkg/repository"
	"newshub/pkg/scheduler"
	"newshub/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	// .env is optional, it feeds ${VAR} expansion in the config file
	if err := godotenv.Load(); err == nil {
		log.Printf("[DEBUG] .env file loaded")
	}

	log.Printf("[INFO] starting newshub version %s", revision)

	if err := run(opts); err != nil {
		log.Printf("[ERROR] newshub failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

func run(opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() {
		if cerr := repos.Close(); cerr != nil {
			log.Printf("[WARN] failed to close database: %v", cerr)
		}
	}()

	store := cache.NewMemoryStore(cfg.Cache.CleanupInterval)
	defer store.Close()
	gw := cache.NewGateway(store)

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		return fmt.Errorf("no providers available")
	}

	persister := ingest.NewPersister(repos, gw)
	orchestrator := ingest.NewOrchestrator(providers, persister, cfg.Schedule.MaxWorkers)

	sched := scheduler.NewScheduler(orchestrator, cfg.UpdateInterval())
	sched.Start(ctx)
	defer sched.Stop()

	preferences := news.NewPreferenceService(repos)
	articles := news.NewArticleService(repos, gw, preferences)
	taxonomies := news.NewTaxonomyService(repos, gw)

	srv := server.New(cfg, articles, taxonomies, preferences, sched, gw, revision, opts.Debug)
	return srv.Run(ctx)
}

// buildProviders creates every configured provider in a fixed order, so
// ingestion reports stay stable across runs. Unconfigured providers are
// skipped with a notice.
func buildProviders(cfg *config.Config) []provider.Provider {
	type constructor struct {
		name  string
		build func() (provider.Provider, error)
	}

	timeout, maxArticles := cfg.Fetch.Timeout, cfg.Fetch.MaxArticles
	constructors := []constructor{
		{"guardian", func() (provider.Provider, error) {
			return provider.NewGuardian(cfg.Providers.Guardian.APIKey, cfg.Providers.Guardian.BaseURL, timeout, maxArticles)
		}},
		{"nytimes", func() (provider.Provider, error) {
			return provider.NewNYTimes(cfg.Providers.NYTimes.APIKey, cfg.Providers.NYTimes.BaseURL, timeout, maxArticles)
		}},
		{"newsapi", func() (provider.Provider, error) {
			return provider.NewNewsAPI(cfg.Providers.NewsAPI.APIKey, cfg.Providers.NewsAPI.BaseURL, timeout, maxArticles)
		}},
		{"rss", func() (provider.Provider, error) {
			return provider.NewRSS(cfg.Providers.RSS.Feeds, cfg.Providers.RSS.UserAgent, timeout, maxArticles)
		}},
	}

	var providers []provider.Provider
	for _, c := range constructors {
		p, err := c.build()
		if err != nil {
			log.Printf("[INFO] provider %s skipped: %v", c.name, err)
			continue
		}
		log.Printf("[INFO] provider %s enabled", p.Name())
		providers = append(providers, p)
	}
	return providers
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
