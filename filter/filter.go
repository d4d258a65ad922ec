package filter

import "github.com/s0up4200/cratedigger/qbittorrent"

// defaultCompiler is shared by CompileFilter
var defaultCompiler = NewCompiler(WithCache(32))

// CompileFilter compiles an expression with the shared caching compiler.
// An empty expression yields a filter that accepts everything.
func CompileFilter(expression string) (CompiledFilter, error) {
	if expression == "" {
		return acceptAll{}, nil
	}
	return defaultCompiler.Compile(expression)
}

// Apply returns the results accepted by f, preserving order
func Apply(f Filter, results []qbittorrent.SearchResult) []qbittorrent.SearchResult {
	if f == nil {
		return results
	}
	kept := make([]qbittorrent.SearchResult, 0, len(results))
	for _, r := range results {
		if f.Match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

type acceptAll struct{}

func (acceptAll) Match(qbittorrent.SearchResult) bool { return true }

func (acceptAll) Expression() string { return "" }
