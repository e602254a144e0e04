package evidence

import (
	"errors"
	"testing"
	"time"
)

func TestNewAssignsIdentity(t *testing.T) {
	p, err := New("J. Doe", "PHX-1", "Investigator", "Crime Scene A", []Section{
		{Title: "evidence 1", Content: "bloodstain sample"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.PackageID == "" {
		t.Error("package ID not assigned")
	}
	if _, err := time.Parse(time.RFC3339, p.TimestampISO); err != nil {
		t.Errorf("timestamp not RFC3339: %q", p.TimestampISO)
	}
	if len(p.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(p.Sections))
	}
}

func TestNewUniquePackageIDs(t *testing.T) {
	a, err := New("J. Doe", "PHX-1", "Investigator", "Crime Scene A", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New("J. Doe", "PHX-1", "Investigator", "Crime Scene A", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.PackageID == b.PackageID {
		t.Error("package IDs must be unique per generation")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		pkg  Package
		want error
	}{
		{"missing operator", Package{BadgeID: "b", Role: "r", EvidenceSource: "s"}, ErrMissingOperator},
		{"blank operator", Package{OperatorName: "   ", BadgeID: "b", Role: "r", EvidenceSource: "s"}, ErrMissingOperator},
		{"missing badge", Package{OperatorName: "o", Role: "r", EvidenceSource: "s"}, ErrMissingBadge},
		{"missing role", Package{OperatorName: "o", BadgeID: "b", EvidenceSource: "s"}, ErrMissingRole},
		{"missing source", Package{OperatorName: "o", BadgeID: "b", Role: "r"}, ErrMissingSource},
		{"complete", Package{OperatorName: "o", BadgeID: "b", Role: "r", EvidenceSource: "s"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pkg.Validate()
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	p, err := New("", "PHX-1", "Investigator", "Crime Scene A", nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if p != nil {
		t.Error("no partial package may be produced on validation failure")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p, err := New("J. Doe", "PHX-1", "Investigator", "Crime Scene A", []Section{
		{Title: "photo log", Content: "12 photos taken\nnorth wall"},
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.PackageID != p.PackageID || got.OperatorName != p.OperatorName {
		t.Error("round trip lost fields")
	}
	if got.Sections[0].Content != p.Sections[0].Content {
		t.Error("round trip lost section content")
	}
}
