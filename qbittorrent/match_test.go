package qbittorrent

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"Radiohead - OK Computer (1997) [FLAC 24-96]": "radiohead ok computer 1997 flac 24 96",
		"Björk.Homogenic.1997.FLAC-GRP":               "björk homogenic 1997 flac grp",
		"":                                            "",
	}

	for input, want := range cases {
		if got := normalizeTitle(input); got != want {
			t.Fatalf("normalizeTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestComputeTokenMatch(t *testing.T) {
	desired := []string{"ok", "computer", "1997"}
	candidate := []string{"radiohead", "ok", "computer", "1997", "flac"}

	got := computeTokenMatch(desired, candidate)
	if got != 1 {
		t.Fatalf("computeTokenMatch returned %f, want 1.0", got)
	}

	if computeTokenMatch(desired, []string{"computer"}) <= 0.3 {
		t.Fatalf("expected partial overlap to be > 0.3")
	}
}

func TestMatchNameExact(t *testing.T) {
	candidates := []string{
		"Radiohead - OK Computer (1997) [FLAC]",
		"Radiohead - OK Computer OKNOTOK (2017) [FLAC]",
	}

	match, ok := MatchName("radiohead ok computer 1997 flac", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if !match.ExactMatch || match.Score != 100 {
		t.Fatalf("expected exact match with score 100, got %+v", match)
	}
	if match.Name != candidates[0] {
		t.Fatalf("matched %q, want %q", match.Name, candidates[0])
	}
}

func TestMatchNamePrefersTighterCandidate(t *testing.T) {
	candidates := []string{
		"Radiohead - OK Computer OKNOTOK 1997 2017 (2017) [FLAC 24-96]",
		"Radiohead - OK Computer [FLAC]",
	}

	match, ok := MatchName("Radiohead OK Computer", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Score != 100 {
		t.Fatalf("expected full token coverage, got %d", match.Score)
	}
	if match.Name != candidates[1] {
		t.Fatalf("matched %q, want %q", match.Name, candidates[1])
	}
}

func TestMatchNameBelowThreshold(t *testing.T) {
	candidates := []string{"Portishead - Dummy (1994) [FLAC]"}

	match, ok := MatchName("Massive Attack Mezzanine", candidates)
	if !ok {
		t.Fatal("expected a best candidate even when it scores low")
	}
	if match.Score >= MinMatchScore {
		t.Fatalf("expected score below %d, got %d", MinMatchScore, match.Score)
	}
}

func TestMatchNameRejectsConflictingYear(t *testing.T) {
	candidates := []string{"Weezer - Weezer (2001) [FLAC]"}

	match, _ := MatchName("Weezer Weezer 1994", candidates)
	if match.Score != 0 {
		t.Fatalf("expected conflicting year to score 0, got %d", match.Score)
	}
}

func TestMatchNameNoCandidates(t *testing.T) {
	if _, ok := MatchName("anything", nil); ok {
		t.Fatal("expected no match without candidates")
	}
	if _, ok := MatchName("   ", []string{"a"}); ok {
		t.Fatal("expected no match for empty name")
	}
}
