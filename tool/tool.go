// Package tool implements the function calling subsystem: tools the model
// may call with schema validated arguments, plus request processors such as
// PreloadMemory that shape the model request instead of being called.
package tool

import (
	"fmt"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/internal/util"
	"github.com/hupe1980/fittelligence/model"
)

// Tool extends an agent with an external capability.
//
// The model sees Name, Description and Parameters as a function
// declaration; Call runs with the arguments the model supplied.
type Tool interface {
	// Name returns the snake_case identifier used in function calls.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters returns a JSON schema for the arguments.
	Parameters() map[string]any

	// Call executes the tool with parsed arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// RequestProcessor is implemented by tools that modify the model request
// before each model call.
type RequestProcessor interface {
	ProcessRequest(toolCtx *core.ToolContext, req *model.Request) error
}

// Declared reports whether t is exposed to the model as a function. Tools
// implementing Declared() bool can opt out.
func Declared(t Tool) bool {
	if d, ok := t.(interface{ Declared() bool }); ok {
		return d.Declared()
	}
	return true
}

// Definition converts a tool into a model function declaration.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "TOOL_NOT_FOUND"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
