// Package canonical derives the deterministic digest input from an evidence
// package.
//
// Canonicalization applies exactly these normalizations and no others: trim
// leading/trailing whitespace on every scalar field and on every section
// title and content, flatten interior line breaks in scalars and titles to
// a single space, upper-case section titles, preserve section order, and
// preserve content-internal whitespace and newlines verbatim. Two packages
// that differ only by surrounding whitespace or section-title casing
// therefore canonicalize to byte-identical payloads and the same digest.
//
// Scalars and titles occupy exactly one line of the sealed report, so a
// line break inside them would change meaning between sealing and parsing;
// flattening here keeps the digested fields identical to the fields a
// round trip reconstructs.
//
// The payload byte form is compact JSON with a fixed key order. The same
// serialization is used on the generation path and the verification path;
// this is the one fixed interchange scheme of the digest procedure.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"

	"phanix/internal/evidence"
)

var lineBreakRun = regexp.MustCompile(`[ \t]*[\r\n]+[ \t]*`)

// flattenScalar trims a single-line field and collapses any interior line
// break run to one space.
func flattenScalar(s string) string {
	return lineBreakRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// PayloadSection is the normalized form of a manifest section.
type PayloadSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Payload is the order-preserving, whitespace-normalized projection of an
// evidence package used only as digest input.
type Payload struct {
	Operator  string           `json:"operator"`
	Badge     string           `json:"badge"`
	Role      string           `json:"role"`
	Source    string           `json:"source"`
	PackageID string           `json:"id"`
	Timestamp string           `json:"ts"`
	Sections  []PayloadSection `json:"sections"`
}

// Canonicalize projects a package to its canonical payload. Pure and total:
// empty strings are legal canonical values.
func Canonicalize(p *evidence.Package) Payload {
	out := Payload{
		Operator:  flattenScalar(p.OperatorName),
		Badge:     flattenScalar(p.BadgeID),
		Role:      flattenScalar(p.Role),
		Source:    flattenScalar(p.EvidenceSource),
		PackageID: flattenScalar(p.PackageID),
		Timestamp: flattenScalar(p.TimestampISO),
		Sections:  make([]PayloadSection, len(p.Sections)),
	}
	for i, s := range p.Sections {
		out.Sections[i] = PayloadSection{
			Title:   strings.ToUpper(flattenScalar(s.Title)),
			Content: strings.TrimSpace(s.Content),
		}
	}
	return out
}

// Bytes serializes the payload to its fixed byte form. Struct field order
// pins the JSON key order, so equal payloads marshal to identical bytes.
func (p Payload) Bytes() []byte {
	data, err := json.Marshal(p)
	if err != nil {
		// Marshaling a struct of strings cannot fail.
		panic("canonical: marshal payload: " + err.Error())
	}
	return data
}

// Digest computes the SHA-256 digest of b as 64 lowercase hex characters.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// DigestPackage is the generation-time composition: canonicalize, serialize,
// digest.
func DigestPackage(p *evidence.Package) string {
	return Digest(Canonicalize(p).Bytes())
}
