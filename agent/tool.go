package agent

import (
	"context"
	"encoding/json"

	"github.com/s0up4200/cratedigger/llm"
)

// Tool is a function the model can call during a run
type Tool interface {
	// Definition describes the tool to the model
	Definition() llm.Tool

	// Call runs the tool with the model's JSON arguments. The returned text is
	// sent back to the model verbatim.
	Call(ctx context.Context, session *Session, args json.RawMessage) (string, error)
}

// toolName returns the function name of a tool
func toolName(t Tool) string {
	return t.Definition().Function.Name
}

func decodeArgs(args json.RawMessage, target any) error {
	return llm.DecodeArguments(string(args), target)
}
