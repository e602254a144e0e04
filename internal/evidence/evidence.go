// Package evidence defines the structured evidence package that operators
// assemble before sealing.
//
// An evidence package combines operator identity (name, badge, role), the
// evidence source, and an ordered list of free-text manifest sections. Once
// sealed into a report it is immutable; the package here is the pre-digest
// payload only.
package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors returned by package validation.
var (
	ErrMissingOperator = errors.New("evidence: operator name is required")
	ErrMissingBadge    = errors.New("evidence: badge ID is required")
	ErrMissingRole     = errors.New("evidence: role is required")
	ErrMissingSource   = errors.New("evidence: evidence source is required")
)

// Section is a single manifest entry. Title and content are free text;
// ordering within a package is significant and preserved.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Package is the pre-digest evidence payload.
type Package struct {
	// Operator identity.
	OperatorName string `json:"operator_name"`
	BadgeID      string `json:"badge_id"`
	Role         string `json:"role"`

	// Where the evidence came from. May carry an optional free-text
	// location detail suffix, e.g. "Crime Scene A - north entrance".
	EvidenceSource string `json:"evidence_source"`

	// Assigned at generation time.
	PackageID    string `json:"package_id"`
	TimestampISO string `json:"timestamp_iso"`

	// Ordered manifest sections.
	Sections []Section `json:"sections"`
}

// New assembles a package from operator input, assigns a fresh package ID
// and generation timestamp, and validates the required fields. No partial
// package is ever produced: a validation failure returns nil.
func New(operator, badge, role, source string, sections []Section) (*Package, error) {
	p := &Package{
		OperatorName:   operator,
		BadgeID:        badge,
		Role:           role,
		EvidenceSource: source,
		PackageID:      uuid.NewString(),
		TimestampISO:   time.Now().UTC().Format(time.RFC3339),
		Sections:       sections,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that every required scalar field is non-empty after
// trimming. Sections are free-form and never rejected.
func (p *Package) Validate() error {
	if strings.TrimSpace(p.OperatorName) == "" {
		return ErrMissingOperator
	}
	if strings.TrimSpace(p.BadgeID) == "" {
		return ErrMissingBadge
	}
	if strings.TrimSpace(p.Role) == "" {
		return ErrMissingRole
	}
	if strings.TrimSpace(p.EvidenceSource) == "" {
		return ErrMissingSource
	}
	return nil
}

// Timestamp parses the package generation instant.
func (p *Package) Timestamp() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, p.TimestampISO)
	if err != nil {
		return time.Time{}, fmt.Errorf("evidence: parse timestamp: %w", err)
	}
	return ts, nil
}

// Encode serializes the package to indented JSON.
func (p *Package) Encode() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Decode deserializes a package from JSON.
func Decode(data []byte) (*Package, error) {
	var p Package
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
