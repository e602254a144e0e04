// Package verify orchestrates parsing, digest recomputation, and heuristic
// classification into a single analysis of scanned text.
//
// A recognized sealed report is verified cryptographically: the embedded
// digest is compared byte-for-byte against a digest recomputed from the
// reconstructed fields. Everything else is classified heuristically. The
// two outcomes are kept strictly apart: heuristics never claim integrity,
// and a digest mismatch is never hidden behind an "unrecognized" result.
package verify

import (
	"errors"
	"strings"
	"time"

	"phanix/internal/canonical"
	"phanix/internal/classify"
	"phanix/internal/evidence"
	"phanix/internal/sealed"
)

// ErrEmptyScan is returned for empty or whitespace-only input. No report
// is produced; an empty scan is a no-op, not a classification subject.
var ErrEmptyScan = errors.New("verify: scan text is empty")

// Status is the trust outcome of one analysis.
type Status string

const (
	// StatusTrusted: recognized package, recomputed digest matches.
	StatusTrusted Status = "TRUSTED"

	// StatusTampered: recognized package, recomputed digest differs.
	// A structurally valid package that fails verification is a distinct,
	// higher-severity outcome than "not our format".
	StatusTampered Status = "TAMPERED"

	// StatusUnverified: not a sealed report; heuristics only.
	StatusUnverified Status = "UNVERIFIED"
)

// ClassPackage is the classification assigned to recognized sealed
// reports, trusted or tampered.
const ClassPackage = "PHANIX Secure Package"

// Source tags where the scanned text came from.
type Source string

const (
	SourceCamera Source = "camera"
	SourceUpload Source = "upload"
	SourceManual Source = "manual"
	SourceLink   Source = "link"
)

// PackageDetails carries the reconstructed fields of a recognized package
// for display.
type PackageDetails struct {
	PackageID      string             `json:"package_id"`
	OperatorName   string             `json:"operator_name"`
	BadgeID        string             `json:"badge_id"`
	Role           string             `json:"role"`
	EvidenceSource string             `json:"evidence_source"`
	TimestampISO   string             `json:"timestamp_iso"`
	Sections       []evidence.Section `json:"sections"`
}

// AnalysisReport is the derived output of one scan. It is recomputed per
// scan and never persisted.
type AnalysisReport struct {
	// Digest of the raw scanned text, for audit display.
	Digest    string    `json:"digest"`
	Timestamp time.Time `json:"timestamp"`

	Classification string   `json:"classification"`
	RiskLevel      string   `json:"risk_level"`
	TrustStatus    Status   `json:"trust_status"`
	Indicators     []string `json:"indicators"`
	Source         Source   `json:"source"`

	// Populated only for recognized packages.
	Package        *PackageDetails `json:"package,omitempty"`
	EmbeddedDigest string          `json:"embedded_digest,omitempty"`
	ComputedDigest string          `json:"computed_digest,omitempty"`
}

// Engine runs the verification and classification pipeline.
type Engine struct {
	policy classify.Policy
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy replaces the default heuristic policy.
func WithPolicy(p classify.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock replaces the report timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine with the default classification policy.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy: classify.DefaultPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze parses, verifies, and classifies one piece of scanned text.
func (e *Engine) Analyze(raw string, source Source) (*AnalysisReport, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyScan
	}

	report := &AnalysisReport{
		Digest:    canonical.Digest([]byte(raw)),
		Timestamp: e.now().UTC(),
		Source:    source,
	}

	res := sealed.Parse(raw)
	if res.Recognized {
		e.verifyPackage(res, report)
		return report, nil
	}

	cls := e.policy.Classify(raw)
	report.Classification = cls.Classification
	report.RiskLevel = cls.Risk.String()
	report.TrustStatus = StatusUnverified
	report.Indicators = cls.Indicators
	return report, nil
}

// verifyPackage recomputes the digest over the reconstructed package and
// compares it to the embedded one.
func (e *Engine) verifyPackage(res sealed.ScanResult, report *AnalysisReport) {
	computed := canonical.DigestPackage(res.Fields.Package())

	report.Classification = ClassPackage
	report.EmbeddedDigest = res.Digest
	report.ComputedDigest = computed
	report.Package = &PackageDetails{
		PackageID:      res.Fields.PackageID,
		OperatorName:   res.Fields.OperatorName,
		BadgeID:        res.Fields.BadgeID,
		Role:           res.Fields.Role,
		EvidenceSource: res.Fields.EvidenceSource,
		TimestampISO:   res.Fields.TimestampISO,
		Sections:       res.Fields.Sections,
	}

	if computed == res.Digest {
		report.TrustStatus = StatusTrusted
		report.RiskLevel = classify.RiskLow.String()
		report.Indicators = []string{
			"sealed package structure recognized",
			"recomputed digest matches the embedded integrity hash",
		}
		return
	}

	report.TrustStatus = StatusTampered
	report.RiskLevel = classify.RiskCritical.String()
	report.Indicators = []string{
		"sealed package structure recognized",
		"recomputed digest does NOT match the embedded integrity hash",
		"package content was altered after sealing",
	}
}
