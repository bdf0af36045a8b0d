// Package main is the tebiki CLI entry point.
package main

import (
	"bufio"
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
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/tebiki/internal/assistant"
	"github.com/hyperjump/tebiki/internal/cli"
	"github.com/hyperjump/tebiki/internal/config"
	"github.com/hyperjump/tebiki/internal/embedding"
	"github.com/hyperjump/tebiki/internal/export"
	"github.com/hyperjump/tebiki/internal/extract"
	"github.com/hyperjump/tebiki/internal/indexer"
	"github.com/hyperjump/tebiki/internal/llm"
	"github.com/hyperjump/tebiki/internal/models"
	"github.com/hyperjump/tebiki/internal/resilience"
	"github.com/hyperjump/tebiki/internal/server"
	"github.com/hyperjump/tebiki/internal/storage"
	"github.com/hyperjump/tebiki/internal/vector"
	"github.com/hyperjump/tebiki/internal/watcher"
	"github.com/hyperjump/tebiki/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tebiki/config.yaml"

const (
	sessionIdleTimeout = time.Hour
	sessionPruneEvery  = 5 * time.Minute
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys may live in a .env next to the working directory; a missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "build":
		runBuild()
	case "ask":
		runAsk()
	case "manuals":
		runManuals()
	case "records":
		runRecords()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tebiki version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup parses the shared -config and -debug flags after fs has been populated, loads
// the config and creates the logger. Interactive commands get a console logger.
func setup(fs *flag.FlagSet, args []string, interactive bool) (*config.Config, *zap.Logger) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	var logger *zap.Logger
	if interactive {
		logger, err = utils.NewConsoleLogger(debugMode)
	} else {
		logger, err = utils.NewLogger(debugMode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	_ = logger.Sync()
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func parseFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text", "":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// newEmbedder builds the configured embedder. Remote providers go through a retry,
// rate-limit and circuit-breaker policy.
func newEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	e, err := embedding.New(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if cfg.Embedding.Provider == "openai" {
		p := resilience.New("embedding", cfg.Resilience,
			resilience.WithLogger(logger), resilience.WithRetryable(embedding.IsRetryable))
		e = embedding.WithPolicy(e, p)
	}
	return e, nil
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Completer, error) {
	c, err := llm.New(ctx, &cfg.Completion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion service: %w", err)
	}
	p := resilience.New("completion", cfg.Resilience, resilience.WithLogger(logger))
	return llm.WithPolicy(c, p), nil
}

func newAssistant(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*assistant.Assistant, func(), error) {
	emb, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		_ = emb.Close()
		return nil, nil, err
	}
	opts := append(assistant.FromConfig(&cfg.Assistant),
		assistant.WithTimeout(cfg.Completion.Timeout),
		assistant.WithLogger(logger))
	return assistant.New(emb, completer, opts...), func() { _ = emb.Close() }, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	cfg, logger := setup(fs, os.Args[2:], false)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeAssistant, err := newAssistant(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "Failed to initialize assistant", err)
	}
	defer closeAssistant()

	records, err := storage.NewSQLiteStorage(cfg.Storage.RecordsPath)
	if err != nil {
		fatal(logger, "Failed to open records", err)
	}
	defer records.Close()

	cache := vector.NewCache(vector.NewStore(cfg.Storage.IndexDir))
	sessions := assistant.NewSessionManager(a, cache)

	if cfg.Server.WatchIndexesOrDefault() {
		w := watcher.NewWatcher(cfg.Storage.IndexDir, vector.IndexFileName,
			func(path string) {
				if m := cache.EvictPath(path); m != "" {
					logger.Info("index changed, cache evicted", zap.String("manual", m))
				}
			},
			func(path string) { cache.EvictPath(path) },
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			fatal(logger, "Failed to watch index directory", err)
		}
		defer w.Stop()
	}

	go func() {
		t := time.NewTicker(sessionPruneEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := sessions.Prune(sessionIdleTimeout); n > 0 {
					logger.Debug("pruned idle sessions", zap.Int("count", n))
				}
			}
		}
	}()

	srv := server.NewServer(sessions, cache, records, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	recordsOnly := fs.Bool("records-only", false, "extract and chunk pages into the records file, skip indexing")
	indexesOnly := fs.Bool("indexes-only", false, "build indexes from the existing records file")
	manual := fs.String("manual", "", "limit to one manual")
	output := fs.String("output", "text", "output format: text or json")
	cfg, logger := setup(fs, os.Args[2:], false)
	defer logger.Sync()

	if *recordsOnly && *indexesOnly {
		fmt.Fprintln(os.Stderr, "-records-only and -indexes-only are mutually exclusive")
		os.Exit(1)
	}
	format, err := parseFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := storage.NewSQLiteStorage(cfg.Storage.RecordsPath)
	if err != nil {
		fatal(logger, "Failed to open records", err)
	}
	defer records.Close()

	if !*indexesOnly {
		report, err := createRecords(ctx, cfg, logger, records, *manual)
		if err != nil {
			fatal(logger, "Record creation failed", err)
		}
		cli.WriteRecordsReport(os.Stderr, report)
		if *recordsOnly {
			return
		}
	}

	emb, err := newEmbedder(cfg, logger)
	if err != nil {
		fatal(logger, "Failed to initialize embedder", err)
	}
	defer emb.Close()

	report, err := buildIndexes(ctx, cfg, logger, emb, records, *manual)
	if err != nil {
		fatal(logger, "Index build failed", err)
	}
	if err := cli.WriteBuildReport(os.Stdout, report, format); err != nil {
		fatal(logger, "Output failed", err)
	}
	if report.Failed > 0 {
		os.Exit(2)
	}
}

// newExtractor returns the page extractor, with OCR when a service is configured.
func newExtractor(ctx context.Context, cfg *config.Config, logger *zap.Logger) *extract.Extractor {
	var ocr *extract.OCRClient
	if cfg.OCR.URL != "" {
		ocr = extract.NewOCRClient(cfg.OCR.URL, cfg.OCR.Timeout)
		if err := ocr.Health(ctx); err != nil {
			logger.Warn("OCR service not healthy; image pages without sidecar text will fail", zap.Error(err))
		}
	}
	return extract.NewExtractor(ocr, extract.WithLogger(logger))
}

func newChunker(cfg *config.Config) (*indexer.Chunker, error) {
	tok, err := indexer.NewTokenizer(cfg.Chunking.Tokenizer, cfg.Chunking.TokenizerModel)
	if err != nil {
		return nil, err
	}
	seg, err := indexer.NewSegmenter(cfg.Chunking.Segmenter)
	if err != nil {
		return nil, err
	}
	return indexer.NewChunker(cfg.Chunking.MaxTokens, cfg.Chunking.OverlapOrDefault(), tok, seg), nil
}

// createRecords turns every page under the docs directory into chunk records and
// replaces the records file. With manual set, only that manual's records are replaced.
func createRecords(ctx context.Context, cfg *config.Config, logger *zap.Logger, records storage.RecordStore, manual string) (*indexer.RecordsReport, error) {
	chunker, err := newChunker(cfg)
	if err != nil {
		return nil, err
	}
	return createRecordsWith(ctx, cfg, logger, newExtractor(ctx, cfg, logger), chunker, records, manual)
}

func createRecordsWith(ctx context.Context, cfg *config.Config, logger *zap.Logger, ex extract.TextExtractor, chunker *indexer.Chunker, records storage.RecordStore, manual string) (*indexer.RecordsReport, error) {
	var pages []extract.Page
	var err error
	if manual != "" {
		pages, err = extract.ListPages(cfg.Storage.DocsDir, manual, cfg.Build.Extensions)
	} else {
		pages, err = extract.DiscoverPages(cfg.Storage.DocsDir, cfg.Build.Extensions)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("pages discovered", zap.Int("pages", len(pages)), zap.String("docs_dir", cfg.Storage.DocsDir))

	creator := indexer.NewRecordCreator(ex, chunker, cfg.Storage.DocsDir, cfg.Assistant.Delimiter,
		indexer.WithWorkers(cfg.Build.PageWorkers), indexer.WithLogger(logger))
	report, err := creator.Create(ctx, pages)
	if err != nil {
		return nil, err
	}

	all := report.Records
	if manual != "" {
		existing, err := records.ListRecords(ctx, "")
		if err != nil {
			return nil, err
		}
		all = make([]models.ChunkRecord, 0, len(existing)+len(report.Records))
		for _, r := range existing {
			if r.Manual != manual {
				all = append(all, r)
			}
		}
		all = append(all, report.Records...)
		indexer.SortRecords(all)
	}
	if err := records.SaveRecords(ctx, all); err != nil {
		return nil, fmt.Errorf("save records: %w", err)
	}
	return report, nil
}

// buildIndexes builds one index per manual from the records file.
func buildIndexes(ctx context.Context, cfg *config.Config, logger *zap.Logger, emb embedding.Embedder, records storage.RecordStore, manual string) (*indexer.BuildReport, error) {
	recs, err := records.ListRecords(ctx, manual)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if err := indexer.ValidateDelimiter(recs, cfg.Assistant.Delimiter); err != nil {
		return nil, err
	}
	var manuals []string
	if manual != "" {
		manuals = []string{manual}
	}
	b := indexer.NewBuilder(emb, vector.NewStore(cfg.Storage.IndexDir),
		indexer.WithWorkers(cfg.Build.Workers), indexer.WithLogger(logger))
	return b.Build(ctx, recs, manuals), nil
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	manual := fs.String("manual", "", "manual to ask about (required)")
	showContext := fs.Bool("show-context", false, "print the retrieved chunks before each answer")
	cfg, logger := setup(fs, os.Args[2:], true)
	defer logger.Sync()

	if *manual == "" {
		fmt.Fprintln(os.Stderr, "Usage: tebiki ask -manual <name> [question...]")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeAssistant, err := newAssistant(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "Failed to initialize assistant", err)
	}
	defer closeAssistant()

	cache := vector.NewCache(vector.NewStore(cfg.Storage.IndexDir))
	sess, err := a.NewSession(cache, *manual)
	if err != nil {
		fatal(logger, "Failed to open manual", err)
	}
	c := &chat{assistant: a, indexes: cache, session: sess, out: os.Stdout, showContext: *showContext}

	if question := strings.TrimSpace(strings.Join(fs.Args(), " ")); question != "" {
		if err := c.ask(ctx, question); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := c.repl(ctx, os.Stdin); err != nil {
		fatal(logger, "Input failed", err)
	}
}

// chat drives one interactive session on the terminal.
type chat struct {
	assistant   *assistant.Assistant
	indexes     assistant.IndexProvider
	session     *assistant.Session
	out         io.Writer
	showContext bool
}

func (c *chat) ask(ctx context.Context, question string) error {
	if c.showContext {
		if idx, err := c.indexes.Index(c.session.Manual()); err == nil {
			if chunks, err := c.assistant.Retrieve(ctx, idx, question); err == nil {
				cli.WriteContext(c.out, chunks, 40)
				fmt.Fprintln(c.out)
			}
		}
	}
	answer, err := c.session.Ask(ctx, question, func(text string) {
		fmt.Fprint(c.out, text)
	})
	fmt.Fprintln(c.out)
	if answer != nil {
		cli.WriteCitations(c.out, answer)
	}
	var streamErr *assistant.StreamError
	if err != nil && !errors.As(err, &streamErr) {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return err
}

func (c *chat) repl(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(c.out, "Asking about %q. Commands: :manual <name>, :sources, :quit\n", c.session.Manual())
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(c.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == ":quit" || line == ":exit":
			return nil
		case line == ":sources":
			if last := c.session.LastAnswer(); last.HasPages() {
				cli.WriteCitations(c.out, last)
			} else {
				fmt.Fprintln(c.out, "No pages for the last answer.")
			}
		case line == ":manual" || strings.HasPrefix(line, ":manual "):
			name := strings.TrimSpace(strings.TrimPrefix(line, ":manual"))
			if name == "" {
				fmt.Fprintf(c.out, "Current manual: %s\n", c.session.Manual())
				continue
			}
			if err := c.session.SwitchManual(name); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(c.out, "Switched to %q. Conversation cleared.\n", name)
		case strings.HasPrefix(line, ":"):
			fmt.Fprintf(c.out, "Unknown command %s\n", line)
		default:
			if err := c.ask(ctx, line); err != nil && ctx.Err() != nil {
				return nil
			}
		}
	}
}

func runManuals() {
	fs := flag.NewFlagSet("manuals", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	cfg, logger := setup(fs, os.Args[2:], true)
	defer logger.Sync()
	format, err := parseFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeManuals(context.Background(), os.Stdout, cfg, format); err != nil {
		fatal(logger, "List manuals failed", err)
	}
}

type manualRow struct {
	Manual  string `json:"manual"`
	Indexed bool   `json:"indexed"`
	Pages   int    `json:"pages"`
	Records int    `json:"records"`
}

// listManuals merges manuals with an index and manuals with records.
func listManuals(ctx context.Context, cfg *config.Config) ([]manualRow, error) {
	indexed, err := vector.NewStore(cfg.Storage.IndexDir).Manuals()
	if err != nil {
		return nil, err
	}
	rows := make(map[string]*manualRow)
	var order []string
	add := func(name string) *manualRow {
		if r, ok := rows[name]; ok {
			return r
		}
		rows[name] = &manualRow{Manual: name}
		order = append(order, name)
		return rows[name]
	}
	for _, m := range indexed {
		add(m).Indexed = true
	}
	if _, err := os.Stat(cfg.Storage.RecordsPath); err == nil {
		records, err := storage.NewSQLiteStorage(cfg.Storage.RecordsPath)
		if err != nil {
			return nil, err
		}
		defer records.Close()
		stats, err := records.ListManuals(ctx)
		if err != nil {
			return nil, err
		}
		for _, st := range stats {
			r := add(st.Manual)
			r.Pages, r.Records = st.Pages, st.Records
		}
	}
	sort.Strings(order)
	out := make([]manualRow, len(order))
	for i, name := range order {
		out[i] = *rows[name]
	}
	return out, nil
}

func writeManuals(ctx context.Context, w io.Writer, cfg *config.Config, format cli.OutputFormat) error {
	rows, err := listManuals(ctx, cfg)
	if err != nil {
		return err
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"manuals": rows})
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No manuals. Run `tebiki build` first.")
		return nil
	}
	for _, r := range rows {
		mark := "✓"
		if !r.Indexed {
			mark = "·"
		}
		fmt.Fprintf(w, "%s %-24s %4d pages %6d records\n", mark, r.Manual, r.Pages, r.Records)
	}
	return nil
}

func runRecords() {
	if len(os.Args) < 3 || os.Args[2] != "export" {
		fmt.Fprintln(os.Stderr, "Usage: tebiki records export -o <file.xlsx> [-manual name]")
		os.Exit(1)
	}
	fs := flag.NewFlagSet("records export", flag.ExitOnError)
	out := fs.String("o", "records.xlsx", "output spreadsheet path")
	manual := fs.String("manual", "", "limit to one manual")
	cfg, logger := setup(fs, os.Args[3:], true)
	defer logger.Sync()

	records, err := storage.NewSQLiteStorage(cfg.Storage.RecordsPath)
	if err != nil {
		fatal(logger, "Failed to open records", err)
	}
	defer records.Close()
	recs, err := records.ListRecords(context.Background(), *manual)
	if err != nil {
		fatal(logger, "Read records failed", err)
	}
	if err := export.WriteXLSX(*out, recs); err != nil {
		fatal(logger, "Export failed", err)
	}
	fmt.Printf("Exported %d records to %s\n", len(recs), *out)
}

type statusReport struct {
	Records        int64             `json:"records"`
	RecordsUpdated *time.Time        `json:"records_updated,omitempty"`
	Indexes        map[string]int    `json:"indexes"`
	IndexErrors    map[string]string `json:"index_errors,omitempty"`
	DiskUsageBytes int64             `json:"disk_usage_bytes"`
}

func collectStatus(ctx context.Context, cfg *config.Config) (*statusReport, error) {
	report := &statusReport{Indexes: map[string]int{}}
	if _, err := os.Stat(cfg.Storage.RecordsPath); err == nil {
		records, err := storage.NewSQLiteStorage(cfg.Storage.RecordsPath)
		if err != nil {
			return nil, err
		}
		defer records.Close()
		if report.Records, err = records.CountRecords(ctx); err != nil {
			return nil, err
		}
		if updated, err := records.UpdatedAt(ctx); err == nil && !updated.IsZero() {
			report.RecordsUpdated = &updated
		}
	}
	store := vector.NewStore(cfg.Storage.IndexDir)
	manuals, err := store.Manuals()
	if err != nil {
		return nil, err
	}
	for _, m := range manuals {
		idx, err := store.Load(m)
		if err != nil {
			if report.IndexErrors == nil {
				report.IndexErrors = map[string]string{}
			}
			report.IndexErrors[m] = err.Error()
			continue
		}
		report.Indexes[m] = idx.Size()
	}
	if report.DiskUsageBytes, err = storage.DiskUsageBytes(cfg.Storage.RecordsPath, cfg.Storage.IndexDir); err != nil {
		return nil, err
	}
	return report, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	cfg, logger := setup(fs, os.Args[2:], true)
	defer logger.Sync()
	format, err := parseFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	report, err := collectStatus(context.Background(), cfg)
	if err != nil {
		fatal(logger, "Status failed", err)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}
	fmt.Printf("Records: %d\n", report.Records)
	if report.RecordsUpdated != nil {
		fmt.Printf("Records updated: %s\n", report.RecordsUpdated.Local().Format(time.RFC1123))
	}
	fmt.Printf("Indexes: %d\n", len(report.Indexes))
	names := make([]string, 0, len(report.Indexes))
	for m := range report.Indexes {
		names = append(names, m)
	}
	sort.Strings(names)
	for _, m := range names {
		fmt.Printf("  %-24s %6d chunks\n", m, report.Indexes[m])
	}
	for m, e := range report.IndexErrors {
		fmt.Printf("  %-24s unreadable: %s\n", m, e)
	}
	fmt.Printf("Disk usage: %.1f MB\n", float64(report.DiskUsageBytes)/(1<<20))
	fmt.Printf("Embedding: %s (%d dims), completion: %s %s\n",
		cfg.Embedding.Provider, cfg.Embedding.Dimensions, cfg.Completion.Provider, cfg.Completion.Model)
}

func printUsage() {
	fmt.Println(`tebiki - Ask questions about scanned technical manuals

Usage:
  tebiki server [flags]                       Start the HTTP server
  tebiki build [flags]                        Extract pages into records and build per-manual indexes
  tebiki ask -manual <name> [question...]     Ask a question, or chat interactively without one
  tebiki manuals [flags]                      List manuals
  tebiki records export -o <file.xlsx>        Export chunk records for review
  tebiki status [flags]                       Show records, indexes and disk usage
  tebiki version                              Print version
  tebiki help                                 Show this help

Common flags:
  -config <path>   config file (default: ./config.yaml if present, else ` + defaultConfigPath + `)
  -debug           enable debug logging

Build flags:
  -records-only    stop after writing the records file
  -indexes-only    build indexes from the existing records file
  -manual <name>   limit to one manual
  -output json     machine-readable report

Interactive commands (tebiki ask):
  :manual <name>   switch manual and start a new conversation
  :sources         show the pages behind the last answer
  :quit            exit`)
}
