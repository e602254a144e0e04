// Command phanix-seal assembles an evidence package, seals it, and renders
// the sealed report as a QR code image.
//
// Usage:
//
//	phanix-seal [flags]
//
// Examples:
//
//	# Seal a package with manifest sections from a JSON file
//	phanix-seal -operator "J. Doe" -badge B-4471 -role "Field Agent" \
//	    -source "Crime Scene A" -sections manifest.json
//
//	# Read sections from stdin and emit a share link
//	cat manifest.json | phanix-seal -operator "J. Doe" -badge B-4471 \
//	    -role "Field Agent" -source "Lab Intake" -sections - -link
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"phanix/internal/barcode"
	"phanix/internal/config"
	"phanix/internal/evidence"
	"phanix/internal/sealed"
	"phanix/internal/sharelink"
)

var (
	// Version information (set at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	operator := flag.String("operator", "", "operator name (required)")
	badge := flag.String("badge", "", "badge ID (required)")
	role := flag.String("role", "", "operator role (required)")
	source := flag.String("source", "", "evidence source (required)")
	sectionsPath := flag.String("sections", "", "JSON file of manifest sections, or - for stdin")
	outDir := flag.String("out", "", "output directory (default from config)")
	levelStr := flag.String("level", "", "QR error correction: low, medium, high, highest")
	size := flag.Int("size", 0, "QR image edge in pixels")
	link := flag.Bool("link", false, "print a share link for the sealed report")
	configPath := flag.String("config", "", "config file (.toml or .yaml)")
	quiet := flag.Bool("quiet", false, "quiet mode - only print the package ID")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "phanix-seal - Seal an evidence package into a QR barcode\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSections File:\n")
		fmt.Fprintf(os.Stderr, "  A JSON array of {\"title\": ..., \"content\": ...} objects. Order is\n")
		fmt.Fprintf(os.Stderr, "  preserved and significant: reordering sections changes the digest.\n")
		fmt.Fprintf(os.Stderr, "\nOutputs (written to the output directory):\n")
		fmt.Fprintf(os.Stderr, "  <id>.png            QR barcode of the sealed report\n")
		fmt.Fprintf(os.Stderr, "  <id>.report.txt     sealed report text\n")
		fmt.Fprintf(os.Stderr, "  <id>.manifest.json  digest / package ID / timestamp record\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("phanix-seal %s (commit: %s, built: %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *outDir == "" {
		*outDir = cfg.Seal.OutputDir
	}
	if *levelStr == "" {
		*levelStr = cfg.Seal.ErrorCorrection
	}
	if *size == 0 {
		*size = cfg.Seal.ImageSize
	}

	level, err := barcode.ParseLevel(*levelStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	sections, err := loadSections(*sectionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sections: %v\n", err)
		os.Exit(1)
	}

	pkg, err := evidence.New(*operator, *badge, *role, *source, sections)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	report, manifest, err := sealed.Seal(pkg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sealing package: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	base := filepath.Join(*outDir, manifest.PackageID)
	pngPath := base + ".png"
	if err := barcode.WriteFile(report, level, *size, pngPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing barcode: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(base+".report.txt", []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding manifest: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(base+".manifest.json", manifestJSON, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
		os.Exit(1)
	}

	if *quiet {
		fmt.Println(manifest.PackageID)
	} else {
		fmt.Printf("Package ID: %s\n", manifest.PackageID)
		fmt.Printf("Digest:     %s\n", manifest.Digest)
		fmt.Printf("Sealed At:  %s\n", manifest.TimestampISO)
		fmt.Printf("Barcode:    %s\n", pngPath)
	}

	if *link {
		url, err := sharelink.BuildURL(cfg.Seal.LinkBase, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building share link: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(url)
	}
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

// loadSections reads manifest sections from a JSON file or stdin.
func loadSections(path string) ([]evidence.Section, error) {
	if path == "" {
		return nil, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var sections []evidence.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	return sections, nil
}
