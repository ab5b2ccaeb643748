package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gompdf/gompage"
	"github.com/gompdf/gompage/internal/config"
	"github.com/gompdf/gompage/internal/metrics"
)

func main() {
	var (
		inputFile  string
		outputFile string
		pdfFile    string
		configFile string
		pageHeight float64
		debounce   time.Duration
		detect     string
		dumpStats  bool
		verbose    bool
	)

	flag.StringVar(&inputFile, "input", "", "Input HTML or Markdown file path")
	flag.StringVar(&outputFile, "output", "", "Output HTML file path (default: stdout)")
	flag.StringVar(&pdfFile, "pdf", "", "Also export a PDF to this path")
	flag.StringVar(&configFile, "config", "", "YAML configuration file")
	flag.Float64Var(&pageHeight, "page-height", 0, "Page height in px (default 1123, A4 at 96 DPI)")
	flag.DurationVar(&debounce, "debounce", 0, "Quiet period before markers are rewritten (default 500ms)")
	flag.StringVar(&detect, "detect", "", "Change detection: plan or count")
	flag.BoolVar(&dumpStats, "metrics", false, "Print pagination metrics in the Prometheus text format to stderr")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "Error: input file is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "page-height":
			cfg.Pagination.PageHeight = pageHeight
		case "debounce":
			cfg.Pagination.Debounce = debounce
		case "detect":
			cfg.Pagination.ChangeDetection = detect
		case "verbose":
			cfg.Verbose = verbose
		}
	})

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, inputFile, outputFile, pdfFile, logger); err != nil {
		logger.Error("pagination failed", "input", inputFile, "error", err)
		os.Exit(1)
	}

	if dumpStats {
		if err := metrics.WriteText(os.Stderr); err != nil {
			logger.Error("write metrics", "error", err)
			os.Exit(1)
		}
	}
}

func run(cfg *config.Config, inputFile, outputFile, pdfFile string, logger *slog.Logger) error {
	metrics.Init()

	doc, err := gompage.LoadFile(inputFile)
	if err != nil {
		return err
	}

	opts := []gompage.Option{
		gompage.WithPageHeight(cfg.Pagination.PageHeight),
		gompage.WithContentWidth(cfg.Layout.ContentWidth),
		gompage.WithAutoInsert(cfg.AutoInsert()),
		gompage.WithDebounce(cfg.Pagination.Debounce),
		gompage.WithInitialDelay(cfg.Pagination.InitialDelay),
		gompage.WithChangeDetection(cfg.Pagination.ChangeDetection),
		gompage.WithDebug(cfg.Verbose),
		gompage.WithLogger(logger),
		gompage.WithBaseURL(inputFile),
		gompage.WithMargin(cfg.PDF.Margin),
		gompage.WithTitle(cfg.PDF.Title),
		gompage.WithAuthor(cfg.PDF.Author),
	}
	for _, path := range cfg.Layout.SearchPaths {
		opts = append(opts, gompage.WithResourcePath(path))
	}
	if cfg.Layout.BaseURL != "" {
		opts = append(opts, gompage.WithBaseURL(cfg.Layout.BaseURL))
	}

	p, err := gompage.New(doc, opts...)
	if err != nil {
		return err
	}
	res, err := p.Recalculate(context.Background())
	if err != nil {
		return err
	}
	m := p.Metrics()
	logger.Info("paginated",
		"pages", m.PageCount,
		"height", m.ContentHeight,
		"removed", res.Removed,
		"inserted", res.Inserted,
		"failed", res.Failed)
	if snap, err := metrics.Snapshot(); err == nil {
		logger.Debug("pagination metrics", "snapshot", snap)
	}

	out, err := doc.HTML()
	if err != nil {
		return fmt.Errorf("serialise document: %w", err)
	}
	if outputFile == "" {
		if _, err := fmt.Fprintln(os.Stdout, out); err != nil {
			return err
		}
	} else if err := writeFile(outputFile, out); err != nil {
		return err
	}

	if pdfFile != "" {
		pages, err := p.ExportPDFFile(pdfFile)
		if err != nil {
			return err
		}
		logger.Info("pdf exported", "path", pdfFile, "pages", pages)
	}
	return nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0644)
}
