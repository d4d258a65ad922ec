package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/cratedigger/llm"
)

const defaultMaxSteps = 16

// Result is the outcome of a run
type Result struct {
	Answer     string
	Steps      int
	Session    *Session
	Transcript []llm.Message
}

// Option configures an Agent
type Option func(*Agent)

// WithMaxSteps bounds the number of model turns in a run
func WithMaxSteps(steps int) Option {
	return func(a *Agent) {
		if steps > 0 {
			a.maxSteps = steps
		}
	}
}

// WithDefaultMedia sets the media kind assumed when a request does not name one
func WithDefaultMedia(media string) Option {
	return func(a *Agent) {
		a.defaultMedia = media
	}
}

// WithSystemPrompt replaces the built-in system prompt
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.prompt = prompt
	}
}

// Agent drives a model through repeated tool calls
type Agent struct {
	completer    Completer
	tools        map[string]Tool
	definitions  []llm.Tool
	maxSteps     int
	defaultMedia string
	prompt       string
	logger       zerolog.Logger
}

// New creates an agent with the given tools. Later tools with a duplicate
// name replace earlier ones.
func New(completer Completer, tools []Tool, logger zerolog.Logger, opts ...Option) *Agent {
	a := &Agent{
		completer:    completer,
		tools:        make(map[string]Tool, len(tools)),
		maxSteps:     defaultMaxSteps,
		defaultMedia: MediaMusic,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(a)
	}

	var names []string
	for _, t := range tools {
		name := toolName(t)
		if _, dup := a.tools[name]; !dup {
			names = append(names, name)
		}
		a.tools[name] = t
	}
	for _, name := range names {
		a.definitions = append(a.definitions, a.tools[name].Definition())
	}
	if a.prompt == "" {
		a.prompt = systemPrompt(a.defaultMedia, names)
	}
	return a
}

// Run answers a single request. When the step limit is hit the partial result
// is returned together with ErrMaxSteps.
func (a *Agent) Run(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	session := NewSession(query, a.defaultMedia)
	result := &Result{Session: session}
	messages := []llm.Message{
		llm.SystemMessage(a.prompt),
		llm.UserMessage(query),
	}

	logger := a.logger.With().Str("tag", session.Tag).Logger()
	logger.Info().Str("query", query).Msg("Starting agent run")

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			result.Transcript = messages
			return result, err
		}

		reply, err := a.completer.Complete(ctx, messages, a.definitions)
		if err != nil {
			result.Transcript = messages
			return result, fmt.Errorf("model request failed: %w", err)
		}
		result.Steps = step

		if reply.Role == "" {
			reply.Role = llm.RoleAssistant
		}
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			result.Answer = strings.TrimSpace(reply.Content)
			result.Transcript = messages
			logger.Info().
				Int("steps", step).
				Int("dispatched", len(session.Dispatches())).
				Msg("Agent run finished")
			return result, nil
		}

		for _, call := range reply.ToolCalls {
			content := a.callTool(ctx, session, call, logger)
			messages = append(messages, llm.ToolResultMessage(call.ID, call.Function.Name, content))
		}
	}

	result.Transcript = messages
	logger.Warn().Int("max_steps", a.maxSteps).Msg("Agent stopped at step limit")
	return result, fmt.Errorf("%w (%d)", ErrMaxSteps, a.maxSteps)
}

// callTool runs one tool call. Failures are reported to the model rather
// than ending the run.
func (a *Agent) callTool(ctx context.Context, session *Session, call llm.ToolCall, logger zerolog.Logger) string {
	name := call.Function.Name
	logger = logger.With().Str("tool", name).Logger()

	tool, ok := a.tools[name]
	if !ok {
		logger.Warn().Msg("Model called an unknown tool")
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	logger.Debug().Str("arguments", call.Function.Arguments).Msg("Calling tool")

	out, err := tool.Call(ctx, session, json.RawMessage(call.Function.Arguments))
	if err != nil {
		logger.Warn().Err(err).Msg("Tool failed")
		return "error: " + err.Error()
	}

	logger.Trace().Str("output", out).Msg("Tool finished")
	return out
}
