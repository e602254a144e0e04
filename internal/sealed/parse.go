package sealed

import (
	"regexp"
	"strings"

	"phanix/internal/evidence"
)

// Fields is the structured data reconstructed from a recognized report.
type Fields struct {
	OperatorName   string
	BadgeID        string
	Role           string
	EvidenceSource string
	PackageID      string
	TimestampISO   string
	Sections       []evidence.Section
}

// Package rebuilds an evidence package from parsed fields. The result is
// already in canonical form, so re-digesting it reproduces the digest the
// sealer computed.
func (f Fields) Package() *evidence.Package {
	return &evidence.Package{
		OperatorName:   f.OperatorName,
		BadgeID:        f.BadgeID,
		Role:           f.Role,
		EvidenceSource: f.EvidenceSource,
		PackageID:      f.PackageID,
		TimestampISO:   f.TimestampISO,
		Sections:       f.Sections,
	}
}

// ScanResult is the discriminated outcome of parsing scanned text.
// Recognized carries the reconstructed fields and embedded digest;
// otherwise RawText passes through untouched for heuristic classification.
type ScanResult struct {
	Recognized bool
	Fields     Fields
	Digest     string
	RawText    string
}

// labelRule maps one scalar field to its candidate labels, tried in order.
// Later entries are labels from historical format revisions; keeping them
// in an explicit table keeps backward compatibility visible and testable.
type labelRule struct {
	labels []string
}

var (
	ruleCaseID       = labelRule{labels: []string{labelCaseID, "PACKAGE ID"}}
	ruleTimestampRaw = labelRule{labels: []string{labelTimestampRaw, "TIMESTAMP RAW", "ISO TIMESTAMP"}}
	ruleTimestamp    = labelRule{labels: []string{labelTimestamp, "SEALED AT"}}
	ruleOperator     = labelRule{labels: []string{labelOperator, "OPERATOR NAME"}}
	ruleBadge        = labelRule{labels: []string{labelBadge, "BADGE"}}
	ruleRole         = labelRule{labels: []string{labelRole}}
	ruleSource       = labelRule{labels: []string{labelSource, "SOURCE"}}
)

// The title group is lazy so trailing padding stays out of it; an empty
// title is legal and must round-trip, so the group may match nothing.
var sectionHeading = regexp.MustCompile(`^#(\d+)\s*::\s*(.*?)\s*$`)

// Parse reconstructs structured fields from scanned text.
//
// Recognition requires all four structural markers: the family marker, the
// manifest marker, the signature marker, and the hash label. Anything less
// degrades to an unrecognized raw passthrough rather than a partial parse;
// presenting corrupt partial data as trustworthy would be worse than
// presenting none. The same degradation applies when a marker match yields
// no package ID or no digest.
func Parse(raw string) ScanResult {
	unrecognized := ScanResult{RawText: raw}

	if !strings.Contains(raw, FamilyMarker) ||
		!strings.Contains(raw, ManifestMarker) ||
		!strings.Contains(raw, SignatureMarker) ||
		!strings.Contains(raw, HashLabel) {
		return unrecognized
	}

	lines := strings.Split(raw, "\n")
	manifestIdx := indexOfMarker(lines, ManifestMarker)
	signatureIdx := indexOfMarker(lines, SignatureMarker)
	if manifestIdx < 0 || signatureIdx < 0 || signatureIdx < manifestIdx {
		return unrecognized
	}

	scalars := lines[:manifestIdx]
	f := Fields{
		PackageID:      extractScalar(scalars, ruleCaseID),
		OperatorName:   extractScalar(scalars, ruleOperator),
		BadgeID:        extractScalar(scalars, ruleBadge),
		Role:           extractScalar(scalars, ruleRole),
		EvidenceSource: extractScalar(scalars, ruleSource),
		Sections:       parseSections(lines[manifestIdx+1 : signatureIdx]),
	}

	// Prefer the machine-parseable timestamp line; reports sealed before
	// that line existed carry only the display timestamp.
	f.TimestampISO = extractScalar(scalars, ruleTimestampRaw)
	if f.TimestampISO == "" {
		f.TimestampISO = extractScalar(scalars, ruleTimestamp)
	}

	digest := extractDigest(lines[signatureIdx:])

	if f.PackageID == "" || digest == "" {
		return unrecognized
	}

	return ScanResult{
		Recognized: true,
		Fields:     f,
		Digest:     digest,
		RawText:    raw,
	}
}

func indexOfMarker(lines []string, marker string) int {
	for i, line := range lines {
		if strings.Contains(line, marker) {
			return i
		}
	}
	return -1
}

// extractScalar locates the field's label line and splits at the first
// colon. Candidates are tried in priority order; a missing label yields an
// explicit empty value so older format variants parse without failing.
func extractScalar(lines []string, rule labelRule) string {
	for _, label := range rule.labels {
		for _, line := range lines {
			idx := strings.Index(line, ":")
			if idx < 0 {
				continue
			}
			if strings.TrimSpace(line[:idx]) != label {
				continue
			}
			return strings.TrimSpace(line[idx+1:])
		}
	}
	return ""
}

// extractDigest returns the first non-empty line after the hash label.
func extractDigest(lines []string) string {
	labelIdx := -1
	for i, line := range lines {
		if strings.Contains(line, HashLabel) {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return ""
	}
	for _, line := range lines[labelIdx+1:] {
		if v := strings.TrimSpace(line); v != "" {
			return v
		}
	}
	return ""
}

// parseSections walks the lines strictly between the manifest and
// signature markers. A heading line starts a new section, flushing the
// previous one; leading blank lines before a section's first content line
// are formatter spacing and are dropped, while blank lines after content
// has started are legitimate content and are preserved.
func parseSections(window []string) []evidence.Section {
	var sections []evidence.Section
	var current *evidence.Section
	var content []string
	started := false

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(content, "\n"))
		sections = append(sections, *current)
		current = nil
		content = nil
		started = false
	}

	for _, line := range window {
		if m := sectionHeading.FindStringSubmatch(line); m != nil {
			flush()
			current = &evidence.Section{Title: strings.TrimSpace(m[2])}
			continue
		}
		if current == nil {
			continue
		}
		if !started && strings.TrimSpace(line) == "" {
			continue
		}
		started = true
		content = append(content, line)
	}
	flush()

	return sections
}
