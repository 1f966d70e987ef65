// Command dictbuild regenerates the dictionary artifacts from the source
// documents.
//
// Usage:
//
//	go run ./cmd/dictbuild [flags] [target...]
//
// With no targets every category and keyword file is built. It reads from
// ./dict/sources/ and writes to ./dict/generated/ unless configured
// otherwise. Each target is built independently; the exit status is 1 if
// any of them failed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/andreiashu/geodict"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		sources     string
		output      string
		version     string
		bundle      bool
		compression string
		lock        bool
		nearMiss    int
		logLevel    string
		cldrEn      []string
		cldrZh      []string
		iso         []string
	)

	flagSet := pflag.NewFlagSet("dictbuild", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML config file (default: $"+geodict.ConfigEnv+")")
	flagSet.StringVar(&sources, "sources", "", "directory holding source and patch documents")
	flagSet.StringVar(&output, "output", "", "directory to write artifacts and version.json to")
	flagSet.StringVar(&version, "version-string", "", "dictionary version to record")
	flagSet.BoolVar(&bundle, "bundle", false, "also write a binary <category>.bundle")
	flagSet.StringVar(&compression, "compression", "", "bundle compression: zstd, lz4 or none")
	flagSet.BoolVar(&lock, "lock", false, "hold an advisory lock while updating version.json")
	flagSet.IntVar(&nearMiss, "near-miss", 0, "report aliases of different entities within this edit distance (0 disables)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.StringSliceVar(&cldrEn, "cldr-en", nil, "CLDR English territories.json URLs or paths, tried in order")
	flagSet.StringSliceVar(&cldrZh, "cldr-zh", nil, "CLDR Chinese territories.json URLs or paths, tried in order")
	flagSet.StringSliceVar(&iso, "iso", nil, "ISO 3166 country list URLs or paths, tried in order")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", logLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg *geodict.Config
	var err error
	if configPath != "" {
		cfg, err = geodict.LoadConfig(configPath)
	} else {
		cfg, err = geodict.LoadConfigFromEnv()
	}
	if err != nil {
		return err
	}

	// Flags given on the command line override the config file.
	opts := []geodict.Option{geodict.WithConfig(*cfg), geodict.WithLogger(logger)}
	if flagSet.Changed("sources") {
		opts = append(opts, geodict.WithSourcesDir(sources))
	}
	if flagSet.Changed("output") {
		opts = append(opts, geodict.WithOutputDir(output))
	}
	if flagSet.Changed("version-string") {
		opts = append(opts, geodict.WithVersion(version))
	}
	if flagSet.Changed("lock") {
		opts = append(opts, geodict.WithLocking(lock))
	}
	if flagSet.Changed("near-miss") {
		opts = append(opts, geodict.WithNearMissDistance(nearMiss))
	}
	if bundle || flagSet.Changed("compression") {
		name := compression
		if name == "" {
			name = cfg.Compression
		}
		comp, err := geodict.ParseCompression(name)
		if err != nil {
			return err
		}
		opts = append(opts, geodict.WithBundle(comp))
	}
	locs := cfg.Reference
	if len(cldrEn) > 0 {
		locs.CLDREnglish = cldrEn
	}
	if len(cldrZh) > 0 {
		locs.CLDRChinese = cldrZh
	}
	if len(iso) > 0 {
		locs.ISO3166 = iso
	}
	opts = append(opts, geodict.WithReferenceLocations(locs))

	b, err := geodict.NewBuilder(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := b.RunAll(ctx, flagSet.Args())
	built := make([]string, 0, len(results))
	for _, res := range results {
		built = append(built, res.Target)
	}
	if len(built) > 0 {
		logger.Info("done", "targets", strings.Join(built, ","), "output", b.Config().OutputDir)
	}
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `dictbuild builds entity dictionaries and alias indexes.

Usage:
  dictbuild [flags] [target...]

Targets:
  %s

Flags:
`, strings.Join(geodict.Targets(), ", "))
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
