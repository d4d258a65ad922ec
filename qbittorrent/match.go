package qbittorrent

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MinMatchScore is the lowest score at which a loosely typed name is accepted
const MinMatchScore = 80

// MatchName finds the candidate that best matches name. Scores run from 0 to
// 100 and measure how many of the requested tokens the candidate contains;
// ties go to the candidate with the fewest extra tokens.
func MatchName(name string, candidates []string) (NameMatch, bool) {
	desired := tokenizeTitle(name)
	if len(desired) == 0 || len(candidates) == 0 {
		return NameMatch{}, false
	}
	normalizedName := strings.Join(desired, " ")

	var best NameMatch
	found := false
	for _, candidate := range candidates {
		match := evaluateNameMatch(normalizedName, desired, candidate)
		if !found || better(match, best) {
			best = match
			found = true
		}
	}
	return best, found
}

func better(a, b NameMatch) bool {
	if a.ExactMatch != b.ExactMatch {
		return a.ExactMatch
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ReverseMatch > b.ReverseMatch
}

// evaluateNameMatch scores a single candidate against the requested tokens
func evaluateNameMatch(normalizedName string, desired []string, candidate string) NameMatch {
	match := NameMatch{Name: candidate}

	tokens := tokenizeTitle(candidate)
	if len(tokens) == 0 {
		return match
	}

	if strings.Join(tokens, " ") == normalizedName {
		match.Score = 100
		match.ReverseMatch = 1
		match.ExactMatch = true
		return match
	}

	// A different release year in the candidate usually means a different release
	if yearsConflict(extractYearTokens(desired), extractYearTokens(tokens)) {
		return match
	}

	forward := computeTokenMatch(desired, tokens)
	match.Score = int(math.Round(forward * 100))
	match.ReverseMatch = computeTokenMatch(tokens, desired)
	return match
}

func yearsConflict(desired, candidate []int) bool {
	if len(desired) == 0 || len(candidate) == 0 {
		return false
	}
	for _, d := range desired {
		for _, c := range candidate {
			if d == c {
				return false
			}
		}
	}
	return true
}

// tokenizeTitle splits a title or torrent name into normalized tokens for comparison.
func tokenizeTitle(input string) []string {
	clean := normalizeTitle(input)
	if clean == "" {
		return nil
	}
	return strings.Fields(clean)
}

// normalizeTitle converts a title into a lowercase string with only alphanumeric tokens separated by spaces.
func normalizeTitle(input string) string {
	var b strings.Builder
	lastSpace := true

	for _, r := range strings.ToLower(input) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

func extractYearTokens(tokens []string) []int {
	var years []int
	for _, token := range tokens {
		if len(token) != 4 {
			continue
		}
		year, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if year >= 1900 && year <= 2100 {
			years = append(years, year)
		}
	}
	return years
}

// computeTokenMatch returns intersection proportion of desired tokens in candidate tokens.
func computeTokenMatch(desired, candidate []string) float64 {
	if len(desired) == 0 || len(candidate) == 0 {
		return 0
	}

	candidateSet := make(map[string]struct{}, len(candidate))
	for _, token := range candidate {
		candidateSet[token] = struct{}{}
	}

	var matches int
	for _, token := range desired {
		if _, ok := candidateSet[token]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(desired))
}
