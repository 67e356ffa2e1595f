package excel

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// handleHealthCheck reports server liveness. It takes no arguments and
// never fails.
func handleHealthCheck(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	logger.Debug("Health check")
	return map[string]any{
		"status":    "healthy",
		"service":   "excel-mcp-server",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
