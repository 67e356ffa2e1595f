package imports

import (
	// Tool packages register themselves with the registry on import
	_ "github.com/sheetkit/mcp-excel-server/internal/tools/excel"
)
