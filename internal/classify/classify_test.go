package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIPLiteralURL(t *testing.T) {
	res := DefaultPolicy().Classify("http://192.168.1.5/login")

	assert.Equal(t, ClassURL, res.Classification)
	assert.GreaterOrEqual(t, res.Risk, RiskHigh, "IP-literal host must elevate risk")

	found := false
	for _, ind := range res.Indicators {
		if strings.Contains(ind, "IP-based URL") {
			found = true
		}
	}
	assert.True(t, found, "expected an IP-based URL indicator, got %v", res.Indicators)
}

func TestClassifyTable(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		text      string
		wantClass string
		minRisk   Risk
	}{
		{"https url", "visit https://example.com/report", ClassURL, RiskMedium},
		{"plain http", "http://example.com", ClassURL, RiskHigh},
		{"shortener", "https://bit.ly/3xyz", ClassURL, RiskHigh},
		{"json object", `{"case":"PHX-1","sealed":true}`, ClassJSON, RiskLow},
		{"json array", `[1, 2, 3]`, ClassJSON, RiskLow},
		{"javascript scheme", "javascript:alert(1)", ClassScheme, RiskHigh},
		{"data scheme", "data:text/html;base64,PGI+", ClassScheme, RiskHigh},
		{"tel scheme", "tel:+15551234567", ClassScheme, RiskHigh},
		{"encoded blob", strings.Repeat("QWJjZDEyMzQ=", 5), ClassBlob, RiskMedium},
		{"plain text", "meet at the north entrance", ClassPlaintext, RiskLow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := policy.Classify(tc.text)
			assert.Equal(t, tc.wantClass, res.Classification)
			assert.GreaterOrEqual(t, res.Risk, tc.minRisk)
			assert.NotEmpty(t, res.Indicators)
		})
	}
}

func TestURLWinsOverScheme(t *testing.T) {
	// Precedence assigns the URL label, but the scheme indicator still fires.
	res := DefaultPolicy().Classify(`https://example.com?next=javascript:alert(1)`)
	assert.Equal(t, ClassURL, res.Classification)

	schemeFlagged := false
	for _, ind := range res.Indicators {
		if strings.Contains(ind, "javascript:") {
			schemeFlagged = true
		}
	}
	assert.True(t, schemeFlagged, "independent checks may each contribute indicators")
	assert.Equal(t, RiskHigh, res.Risk)
}

func TestSchemeMatchesOnlyAtTokenBoundary(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		text      string
		wantClass string
	}{
		{"scheme inside a word", "hotel: rates from $120", ClassPlaintext},
		{"scheme with no payload", "data: driven decisions", ClassPlaintext},
		{"bare scheme mid-prose", "see the profile: updated", ClassPlaintext},
		{"real tel uri", "call tel:+15551234567 now", ClassScheme},
		{"real data uri", "payload data:text/html;base64,PGI+", ClassScheme},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := policy.Classify(tc.text)
			assert.Equal(t, tc.wantClass, res.Classification)
			if tc.wantClass == ClassPlaintext {
				for _, ind := range res.Indicators {
					assert.NotContains(t, ind, "suspicious URI scheme")
				}
			}
		})
	}
}

func TestBlobThresholdIsExact(t *testing.T) {
	policy := DefaultPolicy()

	under := strings.Repeat("A", policy.BlobMinLen-1)
	atLimit := strings.Repeat("A", policy.BlobMinLen)

	assert.Equal(t, ClassPlaintext, policy.Classify(under).Classification)
	assert.Equal(t, ClassBlob, policy.Classify(atLimit).Classification)
}

func TestRiskString(t *testing.T) {
	assert.Equal(t, "low", RiskLow.String())
	assert.Equal(t, "medium", RiskMedium.String())
	assert.Equal(t, "high", RiskHigh.String())
	assert.Equal(t, "critical", RiskCritical.String())
}
