package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Arturleone/wa-financas/internal/bot"
	"github.com/Arturleone/wa-financas/internal/chat"
	"github.com/Arturleone/wa-financas/internal/finance"
	"github.com/Arturleone/wa-financas/internal/janitor"
	"github.com/Arturleone/wa-financas/internal/receipt"
	"github.com/Arturleone/wa-financas/internal/scanning"
	"github.com/Arturleone/wa-financas/internal/scanning/tesseract"
	"github.com/Arturleone/wa-financas/internal/store"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	fs := ff.NewFlagSet("wa-financas")
	var (
		group          = fs.StringLong("group", "", "Chat identifier of the finance group (required)")
		backendURL     = fs.StringLong("backend-url", "http://localhost:5678/webhook", "Base URL of the finance workflow webhooks")
		insertPath     = fs.StringLong("backend-insert-path", "financas", "Webhook path for new entries")
		balancePath    = fs.StringLong("backend-balance-path", "saldo", "Webhook path for the balance")
		listPath       = fs.StringLong("backend-list-path", "listar", "Webhook path for the record list")
		removePath     = fs.StringLong("backend-remove-path", "remover", "Webhook path for removals")
		editPath       = fs.StringLong("backend-edit-path", "editar", "Webhook path for edits")
		backendTimeout = fs.DurationLong("backend-timeout", finance.DefaultTimeout, "Timeout of each backend call")
		port           = fs.IntLong("port", 8080, "HTTP gateway port")
		replyURL       = fs.StringLong("gateway-reply-url", "http://localhost:3000/api/replies", "Chat bridge endpoint that sends replies")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		scannerType    = fs.StringLong("scanner", "tesseract", "OCR engine: 'tesseract', 'gemini' or 'ollama'")
		ocrLang        = fs.StringLong("ocr-lang", "por", "OCR language code")
		ocrWhitelist   = fs.StringLong("ocr-whitelist", receipt.DefaultWhitelist, "Characters the OCR engine may return")
		tessdata       = fs.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl, minicpm-v)")
		scratchDir     = fs.StringLong("scratch-dir", "./temp_images", "Directory for images awaiting OCR and export files")
		dbPath         = fs.StringLong("db", "wa-financas.db", "Delivery ledger file path")
		minImageBytes  = fs.IntLong("min-image-bytes", receipt.DefaultMinImageBytes, "Attachments smaller than this are treated as stickers")
		acceptDocs     = fs.BoolLong("accept-documents", "Also read PDF and HEIC receipts")
		locale         = fs.StringLong("locale", "pt-BR", "Receipt vocabulary and export layout: 'pt-BR' or 'en'")
		currency       = fs.StringLong("currency", "BRL", "ISO currency code used in replies")
		amountStrategy = fs.StringLong("amount-strategy", "smallest", "Amount selection: 'smallest' or 'context'")
		receiptKind    = fs.StringLong("receipt-kind", "income", "How receipts are booked: 'income' or 'direction'")
		cleanupDelay   = fs.DurationLong("export-cleanup-delay", 10*time.Second, "Delay before an export file is deleted")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat      = fs.StringLong("log-format", "text", "Log format: text or json")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("WA_FINANCAS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if *group == "" {
		slog.Error("The finance group is required. Set --group or WA_FINANCAS_GROUP")
		os.Exit(1)
	}
	if money.GetCurrency(*currency) == nil {
		slog.Error("Unknown currency", "currency", *currency)
		os.Exit(1)
	}

	vocabulary, err := receipt.VocabularyFor(*locale)
	if err != nil {
		slog.Error("Invalid locale", "error", err)
		os.Exit(1)
	}
	layout, err := finance.CSVLayoutFor(*locale)
	if err != nil {
		slog.Error("Invalid locale", "error", err)
		os.Exit(1)
	}
	selector, err := receipt.SelectorFor(*amountStrategy)
	if err != nil {
		slog.Error("Invalid amount strategy", "error", err)
		os.Exit(1)
	}
	kind, err := bot.ParseReceiptKind(*receiptKind)
	if err != nil {
		slog.Error("Invalid receipt kind", "error", err)
		os.Exit(1)
	}

	// Initialize delivery ledger
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := store.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize OCR engine based on type
	var recognizer scanning.Recognizer
	switch *scannerType {
	case "tesseract":
		slog.Info("Initializing Tesseract...", "lang", *ocrLang)
		recognizer = tesseract.New(*tessdata)
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		recognizer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}
	defer recognizer.Close()

	// Initialize scratch storage
	scratch, err := receipt.NewLocalStorage(*scratchDir)
	if err != nil {
		slog.Error("Failed to initialize scratch directory", "error", err)
		os.Exit(1)
	}

	receiptCfg := receipt.DefaultConfig()
	receiptCfg.MinImageBytes = *minImageBytes
	receiptCfg.AcceptDocuments = *acceptDocs
	receiptCfg.Vocabulary = vocabulary
	receiptCfg.Selector = selector
	receiptCfg.Language = *ocrLang
	receiptCfg.Whitelist = *ocrWhitelist
	pipeline := receipt.NewPipeline(receiptCfg, recognizer, scratch)

	backend := finance.NewClient(finance.Endpoints{
		BaseURL: *backendURL,
		Insert:  *insertPath,
		Balance: *balancePath,
		List:    *listPath,
		Remove:  *removePath,
		Edit:    *editPath,
	}, finance.WithTimeout(*backendTimeout))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := bot.NewHandler(bot.Config{
		Group:              *group,
		ReceiptKind:        kind,
		Currency:           *currency,
		ExportCleanupDelay: *cleanupDelay,
		CSVLayout:          layout,
	}, bot.Dependencies{
		Session:  chat.NewBridge(*replyURL),
		Backend:  backend,
		Receipts: pipeline,
		Files:    scratch,
		Ledger:   db,
		Metrics:  bot.NewMetrics(registry),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := chat.NewDispatcher(handler, chat.DefaultQueueSize)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Dispatcher stopped", "error", err)
		}
	}()

	jan := janitor.New(janitor.Config{}, db, scratch)
	if err := jan.Start(); err != nil {
		slog.Error("Failed to start janitor", "error", err)
		os.Exit(1)
	}
	jan.RunNow()

	// Initialize server
	basicAuth := chat.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := chat.NewServer(dispatcher, registry, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	slog.Info("Monitoring group", "group", *group, "scanner", *scannerType, "locale", *locale)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	<-jan.Stop().Done()
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return nil, fmt.Errorf("unsupported log format %q", format)
}
