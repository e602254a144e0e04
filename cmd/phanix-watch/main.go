// Command phanix-watch is the drop-folder daemon: it watches a directory
// for incoming barcode images, decodes and verifies each one, and writes
// an analysis report next to the image.
//
// Usage:
//
//	phanix-watch [flags]
//
// Example:
//
//	phanix-watch -dir /srv/phanix/drop -report-format json
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phanix/internal/config"
	"phanix/internal/decode"
	"phanix/internal/logging"
	"phanix/internal/verify"
	"phanix/internal/watcher"
)

var (
	// Version information (set at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	dir := flag.String("dir", "", "drop folder to watch (default from config)")
	reportFormatStr := flag.String("report-format", "", "report format: text, json, markdown")
	configPath := flag.String("config", "", "config file (.toml or .yaml)")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "phanix-watch - Scan barcode images dropped into a folder\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nFor each stable image <name>.<ext> in the folder, the daemon writes\n")
		fmt.Fprintf(os.Stderr, "<name>.phanix-report.<fmt> next to it. Half-written uploads are held\n")
		fmt.Fprintf(os.Stderr, "back until they stop changing.\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("phanix-watch %s (commit: %s, built: %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *dir == "" {
		*dir = cfg.Watch.Path
	}
	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Error: no drop folder configured (use -dir or watch.path)\n")
		os.Exit(2)
	}
	if *reportFormatStr == "" {
		*reportFormatStr = cfg.Watch.ReportFormat
	}
	format, err := verify.ParseFormat(*reportFormatStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dir, format, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dir string, format verify.ReportFormat, logger *logging.Logger) error {
	w, err := watcher.New(dir, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, cfg.Watch.Extensions)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	session := decode.NewSession()
	engine := verify.NewEngine()
	generator := verify.NewReportGenerator(format).WithVerbose(true)

	logger.Info("watching drop folder", "dir", dir, "format", string(format))

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case err := <-w.Errors():
			logger.Warn("watch error", "error", err)

		case event := <-w.Events():
			scanOne(event, session, engine, generator, format, logger)
		}
	}
}

// scanOne decodes and verifies a single dropped image, writing the report
// next to it. Failures are logged, never fatal: the daemon keeps watching.
// The report file is created only once there is content for it, so a scan
// that produces nothing leaves no empty file behind.
func scanOne(event watcher.Event, session *decode.Session, engine *verify.Engine, generator *verify.ReportGenerator, format verify.ReportFormat, logger *logging.Logger) {
	log := logger.With("image", event.Path)
	reportPath := event.Path + ".phanix-report." + extensionFor(format)

	var buf bytes.Buffer
	pipeline := decode.NewPipeline(session.Engines()...)
	text, attempts, err := pipeline.DecodeFile(event.Path)
	if err != nil {
		names := make([]string, len(attempts))
		for i, a := range attempts {
			names[i] = a.String()
		}
		verify.WriteDecodeFailure(&buf, names)
		writeReport(log, reportPath, buf.Bytes())
		log.Warn("decode failed", "attempts", len(attempts), "error", err)
		return
	}

	report, err := engine.Analyze(text, verify.SourceUpload)
	if err != nil {
		log.Warn("analysis failed", "error", err)
		return
	}
	if err := generator.Generate(report, &buf); err != nil {
		log.Error("render report", "error", err)
		return
	}
	writeReport(log, reportPath, buf.Bytes())

	log.Info("scan complete",
		"status", string(report.TrustStatus),
		"classification", report.Classification,
		"risk", report.RiskLevel,
		"report", reportPath)
}

func writeReport(log *slog.Logger, path string, content []byte) {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		log.Error("write report file", "error", err)
	}
}

// extensionFor maps a report format to a file extension.
func extensionFor(format verify.ReportFormat) string {
	switch format {
	case verify.FormatJSON:
		return "json"
	case verify.FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// buildLogger creates the daemon logger from config.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logFormat, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    logFormat,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "phanix-watch",
	})
}

// loadConfig loads the config file, or the defaults when none is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}
