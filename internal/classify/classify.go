// Package classify applies heuristic content classification to scanned
// text that is not a sealed report.
//
// The checks are advisory pattern matching, not integrity verification:
// they suggest what a scanned payload looks like and how risky it is to
// act on, and they never claim cryptographic trust. Thresholds and domain
// lists live in a Policy value so product can tune them without touching
// the classification logic.
package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// Classification labels, in first-match precedence order.
const (
	ClassURL       = "URL / Web Resource"
	ClassJSON      = "Structured Data (JSON)"
	ClassScheme    = "Suspicious URI Scheme"
	ClassBlob      = "Encoded Payload"
	ClassPlaintext = "Plain Text"
)

// Risk is the advisory risk tier for scanned content.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Policy holds the tunable heuristic parameters. The zero value is not
// usable; start from DefaultPolicy.
type Policy struct {
	// ShortenerDomains are known URL-shortener hosts. A link through one
	// hides its true destination and escalates risk.
	ShortenerDomains []string

	// SuspiciousSchemes are URI schemes that execute or exfiltrate when
	// opened rather than navigating.
	SuspiciousSchemes []string

	// BlobMinLen is the minimum length of a whitespace-free
	// base64-alphabet run flagged as a possibly encoded payload.
	BlobMinLen int
}

// DefaultPolicy returns the shipped heuristic parameters.
func DefaultPolicy() Policy {
	return Policy{
		ShortenerDomains: []string{
			"bit.ly", "tinyurl.com", "t.co", "goo.gl",
			"is.gd", "ow.ly", "buff.ly", "rb.gy",
		},
		SuspiciousSchemes: []string{"javascript:", "data:", "file:", "tel:"},
		BlobMinLen:       50,
	}
}

// Result is the classifier output: a single classification label chosen by
// precedence, the highest risk any check produced, and every indicator
// that fired. Checks are independent; more than one may contribute
// indicators even though only one label is assigned.
type Result struct {
	Classification string
	Risk           Risk
	Indicators     []string
}

var (
	urlPattern    = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	ipHostPattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	blobPattern   = regexp.MustCompile(`^[A-Za-z0-9+/=_-]+$`)
)

// Classify runs every heuristic against the text and assigns the label of
// the first matching check in precedence order: URL, JSON, suspicious
// scheme, encoded blob, plain text.
func (p Policy) Classify(text string) Result {
	res := Result{Classification: ClassPlaintext, Risk: RiskLow}

	if p.checkURL(text, &res) {
		res.Classification = ClassURL
	} else if checkJSON(text, &res) {
		res.Classification = ClassJSON
	} else if p.checkScheme(text, &res) {
		res.Classification = ClassScheme
	} else if p.checkBlob(text, &res) {
		res.Classification = ClassBlob
	} else {
		res.Indicators = append(res.Indicators, "no structured format detected; treated as plain text")
		return res
	}

	// Indicators from lower-precedence checks still matter even when a
	// higher-precedence label won.
	switch res.Classification {
	case ClassURL:
		p.checkScheme(text, &res)
	case ClassJSON:
		p.checkBlob(text, &res)
	}

	return res
}

func (p Policy) checkURL(text string, res *Result) bool {
	match := urlPattern.FindString(text)
	if match == "" {
		return false
	}

	res.Indicators = append(res.Indicators, "contains a web URL")
	res.escalate(RiskMedium)

	u, err := url.Parse(match)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())

	if ipHostPattern.MatchString(host) {
		res.Indicators = append(res.Indicators, "IP-based URL: host is a raw IP address ("+host+")")
		res.escalate(RiskHigh)
	}
	for _, dom := range p.ShortenerDomains {
		if host == dom {
			res.Indicators = append(res.Indicators, "URL shortener domain hides the destination ("+dom+")")
			res.escalate(RiskHigh)
		}
	}
	if strings.EqualFold(u.Scheme, "http") {
		res.Indicators = append(res.Indicators, "plain HTTP: link is not encrypted in transit")
		res.escalate(RiskHigh)
	}
	return true
}

func checkJSON(text string, res *Result) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if (first == '{' && last == '}') || (first == '[' && last == ']') {
		res.Indicators = append(res.Indicators, "braces-delimited text resembling JSON")
		return true
	}
	return false
}

func (p Policy) checkScheme(text string, res *Result) bool {
	lower := strings.ToLower(text)
	found := false
	for _, scheme := range p.SuspiciousSchemes {
		if hasSchemeToken(lower, scheme) {
			res.Indicators = append(res.Indicators, "suspicious URI scheme: "+scheme)
			res.escalate(RiskHigh)
			found = true
		}
	}
	return found
}

// hasSchemeToken reports whether scheme occurs as a URI scheme: not inside
// a longer word ("hotel:" is not "tel:") and immediately followed by a
// payload character, so prose like "data: driven" stays plain text.
func hasSchemeToken(lower, scheme string) bool {
	for start := 0; ; start++ {
		idx := strings.Index(lower[start:], scheme)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(scheme)
		atBoundary := idx == 0 || !isSchemeChar(lower[idx-1])
		hasPayload := end < len(lower) && lower[end] != ' ' && lower[end] != '\t' && lower[end] != '\n' && lower[end] != '\r'
		if atBoundary && hasPayload {
			return true
		}
		start = idx
	}
}

// isSchemeChar reports whether c may appear in a URI scheme name.
func isSchemeChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '+' || c == '.' || c == '-'
}

func (p Policy) checkBlob(text string, res *Result) bool {
	for _, token := range strings.Fields(text) {
		if len(token) >= p.BlobMinLen && blobPattern.MatchString(token) {
			res.Indicators = append(res.Indicators, "long whitespace-free base64-alphabet string; possibly an encoded payload")
			res.escalate(RiskMedium)
			return true
		}
	}
	return false
}

func (r *Result) escalate(to Risk) {
	if to > r.Risk {
		r.Risk = to
	}
}
