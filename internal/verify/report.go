// Report rendering for analysis results.
package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ReportFormat specifies the output format for rendered reports.
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatText     ReportFormat = "text"
	FormatMarkdown ReportFormat = "markdown"
)

// ParseFormat parses a report format string.
func ParseFormat(s string) (ReportFormat, error) {
	switch s {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format: %s (use text, json, or markdown)", s)
	}
}

// ReportGenerator renders analysis reports.
type ReportGenerator struct {
	format  ReportFormat
	verbose bool
}

// NewReportGenerator creates a generator for the given format.
func NewReportGenerator(format ReportFormat) *ReportGenerator {
	return &ReportGenerator{format: format}
}

// WithVerbose enables full hashes and section contents in the output.
func (g *ReportGenerator) WithVerbose(verbose bool) *ReportGenerator {
	g.verbose = verbose
	return g
}

// Generate writes the report in the configured format.
func (g *ReportGenerator) Generate(report *AnalysisReport, w io.Writer) error {
	switch g.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatText:
		return g.generateText(report, w)
	case FormatMarkdown:
		return g.generateMarkdown(report, w)
	default:
		return fmt.Errorf("unknown format: %s", g.format)
	}
}

func (g *ReportGenerator) generateText(report *AnalysisReport, w io.Writer) error {
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w, "                         PHANIX SCAN ANALYSIS REPORT")
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Trust Status:    %s\n", report.TrustStatus)
	fmt.Fprintf(w, "Classification:  %s\n", report.Classification)
	fmt.Fprintf(w, "Risk Level:      %s\n", report.RiskLevel)
	fmt.Fprintf(w, "Scan Source:     %s\n", report.Source)
	fmt.Fprintf(w, "Scanned At:      %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Content Digest:  %s\n", g.truncateHash(report.Digest))
	fmt.Fprintln(w)

	if report.Package != nil {
		fmt.Fprintln(w, "--- Package Details ---")
		fmt.Fprintf(w, "Case ID:         %s\n", report.Package.PackageID)
		fmt.Fprintf(w, "Operator:        %s\n", report.Package.OperatorName)
		fmt.Fprintf(w, "Badge ID:        %s\n", report.Package.BadgeID)
		fmt.Fprintf(w, "Role:            %s\n", report.Package.Role)
		fmt.Fprintf(w, "Source:          %s\n", report.Package.EvidenceSource)
		fmt.Fprintf(w, "Sealed At:       %s\n", report.Package.TimestampISO)
		fmt.Fprintf(w, "Sections:        %d\n", len(report.Package.Sections))
		if g.verbose {
			for i, s := range report.Package.Sections {
				fmt.Fprintf(w, "  #%d %s\n", i+1, s.Title)
			}
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "--- Integrity ---")
		fmt.Fprintf(w, "Embedded Digest: %s\n", g.truncateHash(report.EmbeddedDigest))
		fmt.Fprintf(w, "Computed Digest: %s\n", g.truncateHash(report.ComputedDigest))
		fmt.Fprintln(w)
	}

	if len(report.Indicators) > 0 {
		fmt.Fprintln(w, "--- Indicators ---")
		for _, ind := range report.Indicators {
			fmt.Fprintf(w, "  * %s\n", ind)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "================================================================================")
	return nil
}

func (g *ReportGenerator) generateMarkdown(report *AnalysisReport, w io.Writer) error {
	fmt.Fprintln(w, "# PHANIX Scan Analysis Report")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Property | Value |")
	fmt.Fprintln(w, "|----------|-------|")
	fmt.Fprintf(w, "| **Trust Status** | %s |\n", report.TrustStatus)
	fmt.Fprintf(w, "| **Classification** | %s |\n", report.Classification)
	fmt.Fprintf(w, "| **Risk Level** | %s |\n", report.RiskLevel)
	fmt.Fprintf(w, "| Scan Source | %s |\n", report.Source)
	fmt.Fprintf(w, "| Scanned At | %s |\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "| Content Digest | `%s` |\n", report.Digest)
	fmt.Fprintln(w)

	if report.Package != nil {
		fmt.Fprintln(w, "## Package Details")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Field | Value |")
		fmt.Fprintln(w, "|-------|-------|")
		fmt.Fprintf(w, "| Case ID | %s |\n", report.Package.PackageID)
		fmt.Fprintf(w, "| Operator | %s |\n", report.Package.OperatorName)
		fmt.Fprintf(w, "| Badge ID | %s |\n", report.Package.BadgeID)
		fmt.Fprintf(w, "| Role | %s |\n", report.Package.Role)
		fmt.Fprintf(w, "| Evidence Source | %s |\n", report.Package.EvidenceSource)
		fmt.Fprintf(w, "| Sealed At | %s |\n", report.Package.TimestampISO)
		fmt.Fprintf(w, "| Embedded Digest | `%s` |\n", report.EmbeddedDigest)
		fmt.Fprintf(w, "| Computed Digest | `%s` |\n", report.ComputedDigest)
		fmt.Fprintln(w)
	}

	if len(report.Indicators) > 0 {
		fmt.Fprintln(w, "## Indicators")
		fmt.Fprintln(w)
		for _, ind := range report.Indicators {
			fmt.Fprintf(w, "- %s\n", ind)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "---\n*Report generated at %s*\n", report.Timestamp.Format(time.RFC3339))
	return nil
}

func (g *ReportGenerator) truncateHash(hash string) string {
	if g.verbose || len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-8:]
}

// WriteDecodeFailure renders the advisory shown when no decode strategy
// produced text from an image. Distinct from TAMPERED: nothing was decoded,
// so nothing could be verified.
func WriteDecodeFailure(w io.Writer, attempts []string) {
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w, "                            DECODE FAILURE REPORT")
	fmt.Fprintln(w, "================================================================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "No barcode could be decoded from the supplied image.")
	fmt.Fprintln(w)
	if len(attempts) > 0 {
		fmt.Fprintln(w, "Strategies attempted:")
		for _, a := range attempts {
			fmt.Fprintf(w, "  * %s\n", a)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Try a sharper capture, more even lighting, or a larger quiet zone")
	fmt.Fprintln(w, "around the barcode, then scan again.")
	fmt.Fprintln(w, "================================================================================")
}
