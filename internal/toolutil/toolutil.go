// Package toolutil holds helpers shared by MCP tool handlers.
package toolutil

import (
	"fmt"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// maxToolErrLen bounds the error text surfaced to MCP clients. Upstream
// failures can embed whole HTML error pages.
const maxToolErrLen = 300

// ToolErr normalizes an engine failure for the tool boundary: classified,
// kind-prefixed, and bounded in length. Nil passes through.
func ToolErr(err error) error {
	if err == nil {
		return nil
	}
	err = engine.Classify(err)
	return fmt.Errorf("%s", engine.Truncate(err.Error(), maxToolErrLen))
}

// RequireField returns a tool-boundary error when a required input field is
// blank.
func RequireField(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
