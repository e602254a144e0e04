// Command phanix-verify scans and verifies phanix barcodes without any
// daemon or persistent state, making it suitable for:
// - Offline verification
// - Third-party audits
// - Automated verification pipelines
//
// Usage:
//
//	phanix-verify [flags] <image.png | report.txt | ->
//
// Examples:
//
//	# Verify a barcode image
//	phanix-verify capture.png
//
//	# Verify sealed report text from stdin, JSON output
//	phanix-verify -format json -
//
//	# Verify a share link
//	phanix-verify -link "https://phanix.local/verify?p=..."
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"phanix/internal/config"
	"phanix/internal/decode"
	"phanix/internal/sharelink"
	"phanix/internal/verify"
)

var (
	// Version information (set at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	formatStr := flag.String("format", "text", "output format: text, json, markdown")
	output := flag.String("output", "", "output file (default: stdout)")
	verbose := flag.Bool("verbose", false, "verbose output with full hashes and section titles")
	linkURL := flag.String("link", "", "verify a share link instead of a file")
	asText := flag.Bool("text", false, "treat the input file as report text, not an image")
	configPath := flag.String("config", "", "config file (.toml or .yaml)")
	exitCode := flag.Bool("exit-code", true, "exit non-zero when a package is TAMPERED")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "phanix-verify - Verify phanix evidence barcodes\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image.png | report.txt | ->\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nTrust Statuses:\n")
		fmt.Fprintf(os.Stderr, "  TRUSTED     - sealed package, recomputed digest matches\n")
		fmt.Fprintf(os.Stderr, "  TAMPERED    - sealed package, digest mismatch\n")
		fmt.Fprintf(os.Stderr, "  UNVERIFIED  - not a sealed package; heuristic classification only\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s capture.png\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -format json -verbose -text report.txt\n", os.Args[0])
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("phanix-verify %s (commit: %s, built: %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	format, err := verify.ParseFormat(*formatStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	raw, source, err := acquireText(cfg, *linkURL, *asText, w)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report, err := verify.NewEngine().Analyze(raw, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	generator := verify.NewReportGenerator(format).WithVerbose(*verbose)
	if err := generator.Generate(report, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if *exitCode && report.TrustStatus == verify.StatusTampered {
		os.Exit(1)
	}
}

// acquireText resolves the input flags and arguments into the raw text to
// analyze, plus its scan source tag.
func acquireText(cfg *config.Config, linkURL string, asText bool, w io.Writer) (string, verify.Source, error) {
	if linkURL != "" {
		token := sharelink.TokenFromURL(linkURL)
		if token == "" {
			return "", "", errors.New("share link carries no token")
		}
		text, err := sharelink.Decode(token)
		if err != nil {
			return "", "", err
		}
		return text, verify.SourceLink, nil
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: input file required\n\n")
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), verify.SourceManual, nil
	}

	if !asText && isImagePath(input) {
		pipeline := decode.NewPipeline(buildEngines(cfg)...)
		text, attempts, err := pipeline.DecodeFile(input)
		if errors.Is(err, decode.ErrExhausted) {
			names := make([]string, len(attempts))
			for i, a := range attempts {
				names[i] = a.String()
			}
			verify.WriteDecodeFailure(w, names)
			os.Exit(1)
		}
		if err != nil {
			return "", "", err
		}
		return text, verify.SourceUpload, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", "", fmt.Errorf("read file: %w", err)
	}
	return string(data), verify.SourceManual, nil
}

// isImagePath reports whether the file looks like a decodable image.
func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// buildEngines constructs the configured decode engines, in order.
func buildEngines(cfg *config.Config) []decode.Engine {
	var engines []decode.Engine
	for _, name := range cfg.Decode.Engines {
		switch name {
		case "zxing":
			engines = append(engines, decode.NewZXingEngine())
		case "goqr":
			engines = append(engines, decode.NewGoQREngine())
		}
	}
	if len(engines) == 0 {
		engines = decode.NewSession().Engines()
	}
	return engines
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
