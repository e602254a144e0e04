// Package sealed implements the sealed report: the fixed-layout text
// document embedded in the barcode.
//
// The formatter and parser in this package are strict inverses over the
// layout contract. The layout is the interoperability boundary of the
// format family: a report produced by one implementation must be parseable
// by another, so the literal markers and the LABEL : VALUE line shape are
// load-bearing and must not change between releases.
package sealed

import (
	"fmt"
	"strings"
	"time"

	"phanix/internal/canonical"
	"phanix/internal/evidence"
)

// Literal layout markers. The parser keys its recognition test on these.
const (
	// FamilyMarker identifies the format family. Text without this marker
	// is never treated as a sealed report.
	FamilyMarker = "PHANIX SECURE EVIDENCE PACKAGE"

	// ManifestMarker opens the evidence manifest window.
	ManifestMarker = "[ EVIDENCE MANIFEST ]"

	// SignatureMarker closes the manifest window and opens the signature
	// section.
	SignatureMarker = "[ CRYPTOGRAPHIC SIGNATURE ]"

	// HashLabel precedes the digest value line.
	HashLabel = "SHA-256 INTEGRITY HASH"
)

const rule = "================================================================"

// Scalar field labels written by the formatter. The parser accepts these
// plus historical variants (see labelRules in parse.go).
const (
	labelCaseID       = "CASE ID"
	labelTimestamp    = "TIMESTAMP"
	labelTimestampRaw = "TIMESTAMP-RAW"
	labelOperator     = "OPERATOR"
	labelBadge        = "BADGE ID"
	labelRole         = "ROLE"
	labelSource       = "EVIDENCE SOURCE"
)

// Manifest is the minimal verification record kept alongside the full
// report after generation.
type Manifest struct {
	Digest       string `json:"digest"`
	PackageID    string `json:"package_id"`
	TimestampISO string `json:"timestamp_iso"`
}

// Seal canonicalizes and digests the package, then renders the sealed
// report. The returned text is the exact string to hand to the barcode
// encoder.
func Seal(p *evidence.Package) (string, Manifest, error) {
	if err := p.Validate(); err != nil {
		return "", Manifest{}, err
	}
	digest := canonical.DigestPackage(p)
	text := Format(p, digest)
	m := Manifest{
		Digest:       digest,
		PackageID:    strings.TrimSpace(p.PackageID),
		TimestampISO: strings.TrimSpace(p.TimestampISO),
	}
	return text, m, nil
}

// Format renders the sealed report for a package and its digest.
//
// The report embeds the canonical projection of the package, so the fields
// a later Parse reconstructs are exactly the fields the digest was computed
// over. Pure text construction; it never fails for a valid package.
func Format(p *evidence.Package, digest string) string {
	c := canonical.Canonicalize(p)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("              " + FamilyMarker + "\n")
	b.WriteString(rule + "\n")

	writeField(&b, labelCaseID, c.PackageID)
	writeField(&b, labelTimestamp, displayTimestamp(c.Timestamp))
	writeField(&b, labelTimestampRaw, c.Timestamp)
	writeField(&b, labelOperator, c.Operator)
	writeField(&b, labelBadge, c.Badge)
	writeField(&b, labelRole, c.Role)
	writeField(&b, labelSource, c.Source)

	b.WriteString(rule + "\n")
	b.WriteString(ManifestMarker + "\n")

	for i, s := range c.Sections {
		b.WriteString("\n")
		fmt.Fprintf(&b, "#%d :: %s\n", i+1, s.Title)
		if s.Content != "" {
			b.WriteString(s.Content + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(SignatureMarker + "\n")
	b.WriteString(HashLabel + ":\n")
	b.WriteString(digest + "\n")
	b.WriteString(rule + "\n")

	return b.String()
}

// writeField emits one LABEL : VALUE line with aligned separators.
func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-16s: %s\n", label, value)
}

// displayTimestamp renders the human-readable timestamp line. It is
// informational only; the parser verifies against the raw line, so a
// locale-dependent rendering here can never break verification.
func displayTimestamp(iso string) string {
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return ts.UTC().Format("Mon, 02 Jan 2006 15:04:05 MST")
}
