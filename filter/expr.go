package filter

import (
	"maps"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/s0up4200/cratedigger/qbittorrent"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	funcs      map[string]any
}

// CompilerOption configures an expr compiler
type CompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *exprCompiler) {
		if size <= 0 {
			return
		}
		// lru.New only fails for non-positive sizes
		if cache, err := lru.New[string, CompiledFilter](size); err == nil {
			c.cache = cache
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewCompiler creates a new expr-based filter compiler
func NewCompiler(opts ...CompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements CachingCompiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lru.Cache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	// Check cache if enabled
	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Compile against a typed environment so unknown fields are rejected up front
	env := make(map[string]any, len(c.helperFuncs)+8)
	maps.Copy(env, c.helperFuncs)
	addResultFields(env, qbittorrent.SearchResult{})

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AsBool(), // Ensure boolean result
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		funcs:      c.helperFuncs,
	}

	// Cache if enabled
	if c.cache != nil {
		c.cache.Add(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Match evaluates the filter against a search result
func (f *exprFilter) Match(result qbittorrent.SearchResult) bool {
	env := createRuntimeEnvironment(f.funcs, result)

	out, err := expr.Run(f.program, env)
	if err != nil {
		// Results that cannot be evaluated are skipped
		return false
	}

	// Result is guaranteed to be bool due to AsBool() option during compilation
	return out.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the helper functions available to every expression
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 8)
	addHelperFunctions(funcs)
	return funcs
}

var regexCache sync.Map

// addHelperFunctions adds all helper functions to the provided map.
// contains, startsWith, endsWith and matches are expr operators, so the
// case-insensitive helpers use other names.
func addHelperFunctions(env map[string]any) {
	env["has"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["prefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["suffix"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["regex"] = func(str, pattern string) bool {
		re, err := compileRegex(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(str)
	}
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// addResultFields exposes the result properties as top-level variables
func addResultFields(env map[string]any, result qbittorrent.SearchResult) {
	env["Name"] = result.Name
	env["Size"] = result.Size
	env["SizeMB"] = result.SizeMB()
	env["Seeders"] = result.Seeders
	env["Leechers"] = result.Leechers
	env["Site"] = result.SiteURL
	env["Engine"] = result.Engine
	env["Client"] = result.Client
}

// createRuntimeEnvironment creates the runtime environment for filter evaluation
func createRuntimeEnvironment(funcs map[string]any, result qbittorrent.SearchResult) map[string]any {
	env := make(map[string]any, len(funcs)+8)
	maps.Copy(env, funcs)
	addResultFields(env, result)
	return env
}
