// Copyright 2025 The WordMask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wordmask command.

WordMask finds the dictionary words of a given length that match a partially
known pattern, such as "c_t" for cat, cot and cut. Word lists are compiled once
into a positional bitset index snapshot; queries then intersect one bitset per
known letter.

# Usage

Build a snapshot from one or more word lists (paths or doublestar globs):

	wordmask build -o words.wmx lists/*.txt

Query it:

	wordmask query -i words.wmx 5 c__t_

Several LENGTH PATTERN pairs may be given and run concurrently:

	wordmask query -i words.wmx 3 ca_ 5 _r__e

Browse interactively, print the length groups, or serve msgpack IPC on
stdin/stdout:

	wordmask interactive -i words.wmx
	wordmask info -i words.wmx
	wordmask serve -i words.wmx

Every command that reads an index also accepts a plain word list for --index,
which is indexed in memory.

# Configuration

Settings live in a TOML file, created with defaults on first run:

	[server]
	max_limit = 64
	default_limit = 20
	max_length = 30
	enable_filter = true

	[index]
	snapshot = "wordmask.wmx"
	verify_on_load = true
	compression_level = "default"

	[cache]
	enabled = true
	max_entries = 1024

	[cli]
	page_size = 20
	min_length = 1
	max_length = 30

In serve mode the [server] and [cache] sections are reloaded when the file
changes.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/bastiangx/wordmask/internal/cli"
	"github.com/bastiangx/wordmask/internal/logger"
	"github.com/bastiangx/wordmask/internal/utils"
	"github.com/bastiangx/wordmask/pkg/config"
	"github.com/bastiangx/wordmask/pkg/dictionary"
	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/bastiangx/wordmask/pkg/match"
	"github.com/bastiangx/wordmask/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	urfave "github.com/urfave/cli/v2"
)

const (
	Version = "0.3.0"
	AppName = "wordmask"
	gh      = "https://github.com/bastiangx/wordmask"
)

var (
	appConfig    = config.DefaultConfig()
	configPath   string
	pathResolver *utils.PathResolver
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	urfave.VersionPrinter = printVersion

	indexFlag := &urfave.StringFlag{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Index snapshot or plain word list (default from config)",
	}

	app := &urfave.App{
		Name:                   AppName,
		Usage:                  "Find dictionary words matching a partial pattern",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Toggle debug mode",
			},
			&urfave.StringFlag{
				Name:  "config",
				Usage: "Config file path",
			},
		},
		Before: setup,
		Commands: []*urfave.Command{
			{
				Name:      "build",
				Aliases:   []string{"b"},
				Usage:     "Build an index snapshot from word lists",
				ArgsUsage: "WORDLIST...",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Snapshot output path (default from config)",
					},
					&urfave.StringFlag{
						Name:  "level",
						Usage: "zstd compression level: fastest, default, better, best",
					},
				},
				Action: buildCommand,
			},
			{
				Name:      "query",
				Aliases:   []string{"q"},
				Usage:     "Print the words matching one or more patterns",
				ArgsUsage: "LENGTH PATTERN [LENGTH PATTERN...]",
				Flags: []urfave.Flag{
					indexFlag,
					&urfave.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum words printed per pattern (0 for all)",
					},
					&urfave.BoolFlag{
						Name:    "count",
						Aliases: []string{"c"},
						Usage:   "Only print the number of matches",
					},
					&urfave.BoolFlag{
						Name:  "no-filter",
						Usage: "Pass patterns through without validation",
					},
					&urfave.IntFlag{
						Name:  "workers",
						Usage: "Concurrent queries (0 for one per pattern)",
					},
				},
				Action: queryCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve msgpack IPC on stdin/stdout",
				Flags:  []urfave.Flag{indexFlag},
				Action: serveCommand,
			},
			{
				Name:    "interactive",
				Aliases: []string{"cli"},
				Usage:   "Search interactively",
				Flags: []urfave.Flag{
					indexFlag,
					&urfave.BoolFlag{
						Name:  "no-filter",
						Usage: "Accept any pattern characters (DBG only)",
					},
				},
				Action: interactiveCommand,
			},
			{
				Name:   "info",
				Usage:  "Show the length groups of an index",
				Flags:  []urfave.Flag{indexFlag},
				Action: infoCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// setup configures logging, paths and config before any command runs.
func setup(c *urfave.Context) error {
	logger.Configure(c.Bool("debug"))

	resolver, err := utils.NewPathResolver()
	if err != nil {
		return fmt.Errorf("failed to initialize path resolver: %w", err)
	}
	pathResolver = resolver
	for k, v := range pathResolver.GetRuntimeInfo() {
		log.Debug("runtime", k, v)
	}

	cfg, path, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return err
	}
	appConfig, configPath = cfg, path
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))
	return nil
}

// indexSource picks a loader for the --index flag, falling back to the
// configured snapshot. Word lists are indexed in memory.
func indexSource(c *urfave.Context) (dictionary.Source, string, error) {
	name := c.String("index")
	if name == "" {
		name = appConfig.Index.Snapshot
	}
	path := pathResolver.GetIndexPath(name)

	format, err := dictionary.DetectFileFormat(path)
	if err != nil {
		return nil, path, err
	}
	log.Debugf("Using %s at %s", format, path)
	if format == dictionary.FormatText {
		return dictionary.WordListSource(path), path, nil
	}
	return dictionary.SnapshotSource(path, appConfig.Index.VerifyOnLoad), path, nil
}

func loadIndex(c *urfave.Context) (*dictionary.RuntimeLoader, error) {
	source, path, err := indexSource(c)
	if err != nil {
		return nil, err
	}
	loader := dictionary.NewRuntimeLoader(source)
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("failed to load index %s: %w", path, err)
	}
	return loader, nil
}

func buildCommand(c *urfave.Context) error {
	if c.NArg() == 0 {
		return urfave.Exit("build needs at least one word list", 2)
	}

	levelName := c.String("level")
	if levelName == "" {
		levelName = appConfig.Index.CompressionLevel
	}
	level, err := dictionary.ParseCompressionLevel(levelName)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = appConfig.Index.Snapshot
	}

	x, stats, err := dictionary.NewLoader(c.Args().Slice()...).Build()
	if err != nil {
		return err
	}
	if err := dictionary.SaveFile(out, x, dictionary.SnapshotOptions{Level: level}); err != nil {
		return err
	}

	fmt.Printf("Indexed %s words in %d length groups from %d files (%s dropped) in %v\n",
		utils.FormatWithCommas(stats.Words), stats.Lengths, stats.Files,
		utils.FormatWithCommas(stats.Dropped), stats.Elapsed)
	fmt.Printf("Snapshot written to %s\n", utils.GetAbsolutePath(out))
	return nil
}

func queryCommand(c *urfave.Context) error {
	args := c.Args().Slice()
	if len(args) == 0 || len(args)%2 != 0 {
		return urfave.Exit("query needs LENGTH PATTERN pairs", 2)
	}

	reqs := make([]index.Request, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		length, err := strconv.Atoi(args[i])
		if err != nil || length < 1 || length > appConfig.Server.MaxLength {
			return urfave.Exit(fmt.Sprintf("invalid length %q (1-%d)", args[i], appConfig.Server.MaxLength), 2)
		}
		pattern := utils.PadPattern(utils.NormalizePatternInput(args[i+1]), length)
		if !c.Bool("no-filter") && !utils.IsValidPatternInput(pattern) {
			return urfave.Exit(fmt.Sprintf("invalid pattern %q: use letters a-z and '_'", args[i+1]), 2)
		}
		if n := utf8.RuneCountInString(pattern); n != length {
			return urfave.Exit(fmt.Sprintf("pattern %q has %d characters, want %d", args[i+1], n, length), 2)
		}
		reqs = append(reqs, index.Request{Length: length, Pattern: index.ParsePattern(pattern)})
	}

	loader, err := loadIndex(c)
	if err != nil {
		return err
	}
	resps, err := loader.Current().QueryBatch(context.Background(), reqs, c.Int("workers"))
	if err != nil {
		return err
	}

	limit := c.Int("limit")
	for i, resp := range resps {
		req := reqs[i]
		if resp.Err != nil {
			return resp.Err
		}
		if len(reqs) > 1 {
			fmt.Printf("%s (%d):\n", req.Pattern, req.Length)
		}
		if c.Bool("count") {
			fmt.Println(len(resp.Words))
			continue
		}
		shown := resp.Words
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for _, w := range shown {
			fmt.Println(w)
		}
		if rest := len(resp.Words) - len(shown); rest > 0 {
			fmt.Printf("... and %s more\n", utils.FormatWithCommas(rest))
		}
		fmt.Printf("Found %s words of length %d\n", utils.FormatWithCommas(len(resp.Words)), req.Length)
	}
	return nil
}

func newMatcher(loader *dictionary.RuntimeLoader) *match.Matcher {
	entries := 0
	if appConfig.Cache.Enabled {
		entries = appConfig.Cache.MaxEntries
	}
	return match.NewMatcher(loader, entries)
}

func serveCommand(c *urfave.Context) error {
	loader, err := loadIndex(c)
	if err != nil {
		return err
	}
	srv := server.NewServer(newMatcher(loader), loader, appConfig, configPath)
	showStartupInfo(loader)
	return srv.Start()
}

func interactiveCommand(c *urfave.Context) error {
	loader, err := loadIndex(c)
	if err != nil {
		return err
	}
	log.SetReportTimestamp(false)
	cfg := appConfig.CLI
	log.Debug("Input info:",
		"minLength", cfg.MinLength,
		"maxLength", cfg.MaxLength,
		"pageSize", cfg.PageSize,
		"noFilter", c.Bool("no-filter"))

	handler := cli.NewInputHandler(newMatcher(loader), cfg.MinLength, cfg.MaxLength, cfg.PageSize, c.Bool("no-filter"))
	return handler.Start()
}

func infoCommand(c *urfave.Context) error {
	source, path, err := indexSource(c)
	if err != nil {
		return err
	}
	x, err := source()
	if err != nil {
		return err
	}

	format, _ := dictionary.DetectFileFormat(path)
	title := lipgloss.NewStyle().Bold(true)
	fmt.Println(title.Render(utils.GetAbsolutePath(path)))
	if info, ok := dictionary.GetFormatInfo(format); ok {
		fmt.Printf("%s (%s)\n", info.Description, strings.Join(info.Extensions, ", "))
	}

	stats := x.Stats()
	fmt.Printf("%s words in %d length groups\n", utils.FormatWithCommas(stats["words"]), stats["lengths"])
	for _, l := range x.Lengths() {
		g, _ := x.Group(l)
		fmt.Printf("%4d  %10s\n", l, utils.FormatWithCommas(g.Len()))
	}
	return nil
}

// printVersion shows the version banner.
func printVersion(c *urfave.Context) {
	banner := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ WordMask ] Finds words from the letters you know")
	banner.Print("", "version", c.App.Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo reports the served index on stderr.
func showStartupInfo(loader *dictionary.RuntimeLoader) {
	l := logger.New("[server]")
	l.SetLevel(log.InfoLevel)
	x := loader.Current()
	l.Infof("Version: %s", Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("index: %s words, %d lengths", utils.FormatWithCommas(x.WordCount()), len(x.Lengths()))
	if configPath != "" {
		l.Infof("config: ( %s )", configPath)
	}
	l.Info("status: ready")
}
