// Package main is the yomu CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/chunker"
	"github.com/hyperjump/yomu/internal/cli"
	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/indexer"
	"github.com/hyperjump/yomu/internal/llm"
	"github.com/hyperjump/yomu/internal/qa"
	"github.com/hyperjump/yomu/internal/search"
	"github.com/hyperjump/yomu/internal/server"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/internal/summary"
	"github.com/hyperjump/yomu/internal/watcher"
	"github.com/hyperjump/yomu/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "~/.yomu/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence, and a missing default file
// yields the built-in defaults. It returns the path actually loaded, or ""
// when the defaults were used.
func loadConfig(path string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, err := os.Stat(fallback); err == nil {
			cfg, err := config.Load(fallback)
			if err != nil {
				return nil, "", err
			}
			return cfg, fallback, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.Default(), "", nil
	}
	resolved := filepath.Join(home, strings.TrimPrefix(defaultConfigPath, "~/"))
	if _, err := os.Stat(resolved); errors.Is(err, os.ErrNotExist) {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse sees them. The flag
// package stops at the first non-flag argument, so
// "yomu ask paper.pdf what is it --format json" would otherwise leave
// --format unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuestion joins the positional args with spaces so multi-word
// questions work with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func main() {
	// A missing .env is fine; keys may come from the real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "summarize":
		runSummarize()
	case "ask":
		runAsk()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("yomu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags holds the flags every subcommand accepts.
type commonFlags struct {
	configPath string
	format     string
	debug      bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", defaultConfigPath, "config file path")
	fs.StringVar(&c.format, "format", string(cli.OutputText), "output format: text or json")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging (cache hits, chunking, provider calls)")
	return fs, c
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and builds the logger.
func (c *commonFlags) setup() (*config.Config, string, *zap.Logger, cli.OutputFormat) {
	format, err := cli.ParseFormat(c.format)
	if err != nil {
		fail("%v", err)
	}
	cfg, resolved, err := loadConfig(c.configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || c.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fail("Failed to create logger: %v", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode))
	return cfg, resolved, logger, format
}

func runServer() {
	fs, common := newFlagSet("server")
	_ = fs.Parse(os.Args[2:])
	cfg, resolvedConfigPath, logger, _ := common.setup()
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchSvc := components.newWatcher(cfg.Watch)
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting()

	srv := server.NewServer(cfg, components.Summaries, components.QA, components.Extractor,
		components.providers(), logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
		server.WithVersion(version),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runSummarize() {
	fs, common := newFlagSet("summarize")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu summarize [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	cfg, _, logger, format := common.setup()
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail("Failed to initialize: %v", err)
	}
	defer components.Close()

	text, err := components.Extractor.Extract(fs.Arg(0))
	if err != nil {
		fail("Failed to read document: %v", err)
	}
	res, err := components.Summaries.Summarize(ctx, text)
	if err != nil {
		fail("Summarization failed: %v", err)
	}
	if err := cli.WriteSummary(os.Stdout, res, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runAsk() {
	fs, common := newFlagSet("ask")
	topK := fs.Int("top-k", 0, "number of passages to retrieve (default from config)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu ask [flags] <file> <question...>\n\n")
		fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 2 {
		fs.Usage()
		os.Exit(1)
	}
	question := buildQuestion(fs.Args()[1:])
	cfg, _, logger, format := common.setup()
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail("Failed to initialize: %v", err)
	}
	defer components.Close()

	text, err := components.Extractor.Extract(fs.Arg(0))
	if err != nil {
		fail("Failed to read document: %v", err)
	}
	session, err := components.QA.Open(ctx, text)
	if err != nil {
		fail("%s", qa.FailureMessage(err))
	}
	if *topK > 0 {
		session.TopK = *topK
	}
	ans, err := session.Ask(ctx, question)
	if err != nil {
		fail("%s", qa.FailureMessage(err))
	}
	if err := cli.WriteAnswer(os.Stdout, ans, format); err != nil {
		fail("Output failed: %v", err)
	}
}

// runWatch runs the inbox watcher in the foreground. Directories given as
// arguments are watched in addition to the configured ones.
func runWatch() {
	fs, common := newFlagSet("watch")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	cfg, _, logger, _ := common.setup()
	defer logger.Sync()

	watchCfg := cfg.Watch
	for _, dir := range fs.Args() {
		abs, err := filepath.Abs(dir)
		if err != nil {
			fail("Invalid directory %s: %v", dir, err)
		}
		watchCfg.Directories = append(watchCfg.Directories, abs)
	}
	if len(watchCfg.Directories) == 0 {
		fail("No directories to watch; pass them as arguments or set watch.directories")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail("Failed to initialize: %v", err)
	}
	defer components.Close()

	watchSvc := components.newWatcher(watchCfg)
	if err := watchSvc.Start(ctx); err != nil {
		fail("Failed to start watcher: %v", err)
	}
	watchSvc.SyncExisting()
	logger.Info("watching", zap.Strings("directories", watchSvc.Directories()))

	waitForSignal()
	cancel()
	watchSvc.Stop()
}

// statusResponse mirrors the server's GET /api/v1/status body.
type statusResponse struct {
	Version        string           `json:"version,omitempty"`
	Uptime         string           `json:"uptime,omitempty"`
	Providers      server.Providers `json:"providers"`
	Storage        string           `json:"storage_backend"`
	DiskUsageBytes *int64           `json:"disk_usage_bytes,omitempty"`
	TopK           int              `json:"top_k"`
	Hybrid         bool             `json:"hybrid"`
	UseGPU         bool             `json:"use_gpu"`
	Watch          []string         `json:"watch_directories,omitempty"`
}

func runStatus() {
	fs, common := newFlagSet("status")
	serverURL := fs.String("server", "", "server URL (empty = read local config and cache)")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(common.format)
	if err != nil {
		fail("%v", err)
	}

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fail("Status failed: %v", err)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(common.configPath)
		if err != nil {
			fail("Failed to load config: %v", err)
		}
		status = localStatus(cfg)
	}

	if format == cli.OutputJSON {
		if err := cli.WriteJSON(os.Stdout, status); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	writeStatusText(os.Stdout, status)
}

// localStatus reports configuration and cache usage without building any
// provider.
func localStatus(cfg *config.Config) statusResponse {
	status := statusResponse{
		Version: version,
		Providers: server.Providers{
			Embedding:     cfg.Embedding.Provider,
			Generation:    modelLabel(cfg.Generation),
			Summarization: modelLabel(cfg.Summarization.ModelConfig),
		},
		Storage: cfg.Storage.Backend,
		TopK:    cfg.Retrieval.TopK,
		Hybrid:  cfg.Retrieval.Hybrid,
		UseGPU:  cfg.UseGPU,
		Watch:   cfg.Watch.Directories,
	}
	if paths := storage.UsagePaths(cfg.Storage); len(paths) > 0 {
		if n, err := storage.DiskUsageBytes(paths...); err == nil {
			status.DiskUsageBytes = &n
		}
	}
	return status
}

func modelLabel(m config.ModelConfig) string {
	if m.Provider == llm.ProviderExtractive || m.Provider == "" {
		return llm.ProviderExtractive
	}
	return m.Provider + ":" + m.ModelName()
}

func writeStatusText(w io.Writer, status statusResponse) {
	if status.Version != "" {
		fmt.Fprintf(w, "version:            %s\n", status.Version)
	}
	if status.Uptime != "" {
		fmt.Fprintf(w, "uptime:             %s\n", status.Uptime)
	}
	fmt.Fprintf(w, "storage_backend:    %s\n", status.Storage)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # cached indices + summaries\n", *status.DiskUsageBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# providers")
	fmt.Fprintf(w, "embedding:          %s\n", status.Providers.Embedding)
	fmt.Fprintf(w, "generation:         %s\n", status.Providers.Generation)
	fmt.Fprintf(w, "summarization:      %s\n", status.Providers.Summarization)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# retrieval")
	fmt.Fprintf(w, "top_k:              %d\n", status.TopK)
	fmt.Fprintf(w, "hybrid:             %t\n", status.Hybrid)
	fmt.Fprintf(w, "use_gpu:            %t\n", status.UseGPU)
	for _, d := range status.Watch {
		fmt.Fprintf(w, "watch:              %s\n", d)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimSuffix(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

// Components holds the services shared by every subcommand.
type Components struct {
	Logger       *zap.Logger
	IndexStore   storage.Store
	SummaryStore storage.Store
	Embedder     embedding.Embedder
	Generator    llm.Generator
	Summarizer   llm.Summarizer
	Extractor    *extract.Extractor
	QA           *qa.Pipeline
	Summaries    *summary.Pipeline
}

// Close releases stores and the embedder.
func (c *Components) Close() {
	for _, s := range []storage.Store{c.IndexStore, c.SummaryStore} {
		if s != nil {
			_ = s.Close()
		}
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func (c *Components) providers() server.Providers {
	return server.Providers{
		Embedding:     c.Embedder.Name(),
		Generation:    c.Generator.Name(),
		Summarization: c.Summarizer.Name(),
	}
}

func (c *Components) newWatcher(cfg config.WatchConfig) *watcher.Watcher {
	prewarm := watcher.NewPrewarmer(c.Extractor, c.Summaries, c.QA, c.Logger)
	return watcher.NewWatcher(cfg, prewarm, watcher.WithLogger(c.Logger))
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Logger: logger}
	var err error
	if c.IndexStore, err = storage.Open(cfg.Storage, storage.NamespaceIndices); err != nil {
		return nil, fmt.Errorf("failed to open index cache: %w", err)
	}
	if c.SummaryStore, err = storage.Open(cfg.Storage, storage.NamespaceSummaries); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open summary cache: %w", err)
	}
	if c.Embedder, err = embedding.New(ctx, cfg.Embedding, cfg.UseGPU); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if c.Generator, err = llm.NewGenerator(ctx, cfg.Generation); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	if c.Summarizer, err = llm.NewSummarizer(ctx, cfg.Summarization); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	qaChunker, err := chunker.New(cfg.Chunking.QA.Size, cfg.Chunking.QA.Overlap)
	if err != nil {
		c.Close()
		return nil, err
	}
	summaryChunker, err := chunker.New(cfg.Chunking.Summary.Size, cfg.Chunking.Summary.Overlap)
	if err != nil {
		c.Close()
		return nil, err
	}

	retrieverOpts := []search.RetrieverOption{
		search.WithTopK(cfg.Retrieval.TopK),
		search.WithLogger(logger),
	}
	if cfg.Retrieval.Hybrid {
		retrieverOpts = append(retrieverOpts, search.WithHybrid(cfg.Retrieval.KeywordWeight))
	}

	c.Extractor = extract.NewExtractor(logger)
	c.QA = qa.NewPipeline(
		qaChunker,
		indexer.New(c.IndexStore, c.Embedder, indexer.WithLogger(logger)),
		search.NewRetriever(c.Embedder, retrieverOpts...),
		c.Generator,
		qa.WithGate(qa.Gate{MinLength: cfg.Quality.MinAnswerLength}),
		qa.WithLogger(logger),
	)
	c.Summaries = summary.NewPipeline(summaryChunker, c.Summarizer, c.SummaryStore,
		summary.WithWorkers(cfg.Summarization.Workers),
		summary.WithMaxInputChars(cfg.Summarization.MaxInputChars),
		summary.WithLogger(logger),
	)

	logger.Info("components initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("embedding", c.Embedder.Name()),
		zap.String("generation", c.Generator.Name()),
		zap.String("summarization", c.Summarizer.Name()),
		zap.Bool("hybrid", cfg.Retrieval.Hybrid))
	return c, nil
}

func printUsage() {
	fmt.Println(`yomu - Ask questions about a document, or summarize it

Usage:
  yomu server [flags]                       Start the HTTP server (and the inbox watcher)
  yomu summarize [flags] <file>             Summarize a document
  yomu ask [flags] <file> <question...>     Answer a question about a document
  yomu watch [flags] [directory...]         Pre-warm caches for files dropped into directories
  yomu status [flags]                       Show providers and cache usage
  yomu version                              Show version
  yomu help                                 Show this help

Flags (all commands):
  --config string    Config file path (default: ./config.yaml, then ~/.yomu/config.yaml)
  --format string    Output format: text or json (default: text)
  --debug            Enable debug logging

Ask Flags:
  --top-k int        Number of passages to retrieve (default from config)

Status Flags:
  --server string    Read status from a running server instead of local config

Supported documents: .pdf, .docx, .xlsx and plain text (.txt, .md, ...).

Examples:
  yomu summarize paper.pdf
  yomu summarize --format json paper.pdf
  yomu ask paper.pdf what dataset was used
  yomu ask --top-k 3 paper.pdf "what is the main contribution?"
  yomu watch ~/Inbox
  yomu status --server http://localhost:8080`)
}
