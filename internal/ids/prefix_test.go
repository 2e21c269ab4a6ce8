package ids

import "testing"

func TestUniquePrefixLengths(t *testing.T) {
	ids := []string{"2u3iutfd", "2a9k1111", "abc12345"}
	lengths := UniquePrefixLengths(ids)

	if got := lengths["2u3iutfd"]; got != 2 {
		t.Fatalf("expected 2u3iutfd prefix length 2, got %d", got)
	}
	if got := lengths["2a9k1111"]; got != 2 {
		t.Fatalf("expected 2a9k1111 prefix length 2, got %d", got)
	}
	if got := lengths["abc12345"]; got != 1 {
		t.Fatalf("expected abc12345 prefix length 1, got %d", got)
	}
}

func TestUniquePrefixLengthsSkipsDuplicatesAndEmpty(t *testing.T) {
	lengths := UniquePrefixLengths([]string{"abc", "", "ABC"})

	if len(lengths) != 1 {
		t.Fatalf("expected 1 unique ID, got %d", len(lengths))
	}
	if got := lengths["abc"]; got != 1 {
		t.Fatalf("expected abc prefix length 1, got %d", got)
	}
}

func TestMatchPrefix(t *testing.T) {
	ids := []string{"2u3iutfd", "2a9k1111", "abc"}

	tests := []struct {
		prefix    string
		match     string
		found     bool
		ambiguous bool
	}{
		{prefix: "2u", match: "2u3iutfd", found: true},
		{prefix: "2U3", match: "2u3iutfd", found: true},
		{prefix: "2", found: true, ambiguous: true},
		{prefix: "zz"},
		{prefix: ""},
		{prefix: "abc", match: "abc", found: true},
	}

	for _, tt := range tests {
		match, found, ambiguous := MatchPrefix(ids, tt.prefix)
		if match != tt.match || found != tt.found || ambiguous != tt.ambiguous {
			t.Errorf("MatchPrefix(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.prefix, match, found, ambiguous, tt.match, tt.found, tt.ambiguous)
		}
	}
}

func TestMatchPrefixExactWins(t *testing.T) {
	match, found, ambiguous := MatchPrefix([]string{"abcd", "abc"}, "abc")
	if match != "abc" || !found || ambiguous {
		t.Fatalf("expected exact match abc, got (%q, %v, %v)", match, found, ambiguous)
	}
}
