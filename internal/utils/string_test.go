package utils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"svc-a", []string{"svc-a"}},
		{"svc-a,svc-b", []string{"svc-a", "svc-b"}},
		{" svc-a , ,svc-b,", []string{"svc-a", "svc-b"}},
		{"svc-a,svc-a", []string{"svc-a"}},
		{"", []string{}},
		{",,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SplitList(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("SplitList(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		input    []string
		expected string
	}{
		{[]string{"", " ", "main"}, "main"},
		{[]string{" feature "}, "feature"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := FirstNonEmpty(tt.input...); got != tt.expected {
			t.Errorf("FirstNonEmpty(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}
