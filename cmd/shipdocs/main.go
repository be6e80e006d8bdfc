package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"google.golang.org/api/option"

	"github.com/zombor/shipdocs/internal/scanning"
	"github.com/zombor/shipdocs/internal/scanning/tesseract"
	"github.com/zombor/shipdocs/internal/shipment"
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

	os.Exit(run(os.Args[1:]))
}

// run wires the backends and processes the data directory once. Deferred
// Close calls run before main exits with the returned code.
func run(args []string) int {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	flags := ff.NewFlagSet("shipdocs")
	var (
		dataDir        = flags.StringLong("data-dir", "data", "Directory with input documents (.pdf, .jpg, .png)")
		outputDir      = flags.StringLong("output-dir", "output", "Directory for the JSON report")
		credentials    = flags.StringLong("credentials", "service-account.json", "Google service account key file (vision and vertex)")
		ocrType        = flags.StringLong("ocr", "vision", "OCR engine: 'vision' or 'tesseract'")
		ocrLang        = flags.StringLong("ocr-lang", strings.Join(tesseract.DefaultLanguages, "+"), "Tesseract languages, '+' separated")
		ocrFatal       = flags.BoolLong("ocr-errors-fatal", "Stop the whole run on the first OCR error")
		extractorType  = flags.StringLong("extractor", "openai", "Field extractor: 'openai', 'ollama', 'gemini' or 'vertex'")
		openAIKey      = flags.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openAIURL      = flags.StringLong("openai-url", "https://api.openai.com/v1", "OpenAI compatible API base URL")
		modelName      = flags.StringLong("model", "", "Model name (default depends on the extractor)")
		ollamaURL      = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		geminiKey      = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		vertexProject  = flags.StringLong("vertex-project", "", "Google Cloud project for Vertex AI")
		vertexRegion   = flags.StringLong("vertex-region", "us-central1", "Google Cloud region for Vertex AI")
		workers        = flags.IntLong("workers", 1, "Number of files processed concurrently")
		ignoreExtCase  = flags.BoolLong("ignore-ext-case", "Also accept upper and mixed case extensions")
		requestTimeout = flags.DurationLong("timeout", 120*time.Second, "HTTP timeout for a single model request")
		verbose        = flags.BoolLong("verbose", "Enable debug logging")
		showVersion    = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, args,
		ff.WithEnvVarPrefix("SHIPDOCS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		return 0
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OCR engine based on type
	var ocr scanning.TextExtractor
	var err error
	switch *ocrType {
	case "vision":
		slog.Info("Initializing Vision OCR...", "credentials", *credentials)
		ocr, err = scanning.NewVision(ctx, option.WithCredentialsFile(*credentials))
		if err != nil {
			slog.Error("Failed to initialize Vision", "error", err)
			return 1
		}
	case "tesseract":
		langs := strings.Split(*ocrLang, "+")
		slog.Info("Initializing Tesseract OCR...", "languages", langs)
		ocr = tesseract.New(langs...)
	default:
		slog.Error("Invalid OCR type", "type", *ocrType, "valid", "vision or tesseract")
		return 1
	}
	defer ocr.Close()

	// Initialize field extractor based on type
	var fields scanning.FieldExtractor
	switch *extractorType {
	case "openai":
		apiKey := *openAIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("OpenAI API key is required. Set --openai-key flag or OPENAI_API_KEY environment variable")
			return 1
		}
		slog.Info("Initializing OpenAI extractor...", "url", *openAIURL, "model", *modelName)
		fields, err = scanning.NewOpenAI(scanning.OpenAIConfig{
			APIKey:  apiKey,
			BaseURL: *openAIURL,
			Model:   *modelName,
			Timeout: *requestTimeout,
		})
		if err != nil {
			slog.Error("Failed to initialize OpenAI", "error", err)
			return 1
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *modelName)
		fields, err = scanning.NewOllama(*ollamaURL, *modelName)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			return 1
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			return 1
		}
		slog.Info("Initializing Gemini extractor...", "model", *modelName)
		fields, err = scanning.NewGemini(apiKey, *modelName)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			return 1
		}
	case "vertex":
		slog.Info("Initializing Vertex AI extractor...", "project", *vertexProject, "region", *vertexRegion, "model", *modelName)
		fields, err = scanning.NewVertex(ctx, *vertexProject, *vertexRegion, *modelName, option.WithCredentialsFile(*credentials))
		if err != nil {
			slog.Error("Failed to initialize Vertex AI", "error", err)
			return 1
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "openai, ollama, gemini or vertex")
		return 1
	}
	defer fields.Close()

	// Initialize storage
	store, err := shipment.NewLocalStorage(*outputDir)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return 1
	}

	pipeline := shipment.NewPipeline(
		scanning.NewFitzConverter(),
		ocr,
		fields,
		shipment.WithFailOnOCRError(*ocrFatal),
	)
	batch := shipment.NewBatch(shipment.BatchConfig{
		InputDir:      *dataDir,
		Workers:       *workers,
		IgnoreExtCase: *ignoreExtCase,
	}, pipeline, store)

	if _, err := batch.Run(ctx); err != nil {
		slog.Error("Processing failed", "error", err)
		return 1
	}
	return 0
}
