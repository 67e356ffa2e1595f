package registry

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sheetkit/mcp-excel-server/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
}

func (s *stubTool) Definition() mcp.Tool {
	return mcp.NewTool(s.name, mcp.WithDescription("stub tool for registry tests"))
}

func (s *stubTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func initTestRegistry(t *testing.T) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	toolRegistry = make(map[string]tools.Tool)
	Init(logger)
}

func TestRegisterAndGetTool(t *testing.T) {
	initTestRegistry(t)

	Register(&stubTool{name: "alpha"})
	Register(&stubTool{name: "beta"})

	tool, ok := GetTool("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", tool.Definition().Name)

	_, ok = GetTool("missing")
	assert.False(t, ok)

	assert.Len(t, GetTools(), 2)
	assert.Equal(t, []string{"alpha", "beta"}, GetEnabledToolNames())
}

func TestDisabledToolsEnv(t *testing.T) {
	t.Setenv("DISABLED_TOOLS", "beta, gamma")
	initTestRegistry(t)

	Register(&stubTool{name: "alpha"})
	Register(&stubTool{name: "beta"})

	assert.True(t, ShouldRegisterTool("alpha"))
	assert.False(t, ShouldRegisterTool("beta"))
	assert.False(t, ShouldRegisterTool("gamma"))

	_, ok := GetTool("beta")
	assert.False(t, ok)
	assert.Equal(t, []string{"alpha"}, GetEnabledToolNames())
}

func TestSharedResources(t *testing.T) {
	initTestRegistry(t)
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, GetCache())
}
