package model

import "testing"

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{StatusReceived, true},
		{StatusNeedsRepair, true},
		{StatusInRepair, true},
		{StatusReadyForSale, true},
		{StatusSold, true},
		{StatusShipped, true},
		{"received", false},
		{"Scrapped", false},
		{"", false},
	}

	for _, tt := range tests {
		got := ValidStatus(tt.status)
		if got != tt.expected {
			t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestStatusesCoverAllConstants(t *testing.T) {
	if len(Statuses) != 6 {
		t.Errorf("expected 6 statuses, got %d", len(Statuses))
	}
	seen := make(map[string]bool)
	for _, s := range Statuses {
		if seen[s] {
			t.Errorf("duplicate status %q", s)
		}
		seen[s] = true
	}
}
