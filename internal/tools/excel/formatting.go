package excel

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// snapshotStyle captures a cell's resolved style, or nil when the cell
// carries no style of its own.
func snapshotStyle(f *excelize.File, sheetName, cell string) *excelize.Style {
	styleID, err := f.GetCellStyle(sheetName, cell)
	if err != nil || styleID == 0 {
		return nil
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return nil
	}
	return style
}

// restoreStyle reapplies the visual attributes of a snapshot onto a cell.
// The number format the write pass installed is kept; font, fill, border
// and alignment come back from the snapshot.
func restoreStyle(f *excelize.File, sheetName, cell string, snapshot *excelize.Style) error {
	current := &excelize.Style{}
	if styleID, err := f.GetCellStyle(sheetName, cell); err == nil && styleID > 0 {
		if style, err := f.GetStyle(styleID); err == nil {
			current = style
		}
	}
	merged := *current
	merged.Font = snapshot.Font
	merged.Fill = snapshot.Fill
	merged.Border = snapshot.Border
	merged.Alignment = snapshot.Alignment
	styleID, err := f.NewStyle(&merged)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, cell, cell, styleID)
}

// describeStyle summarises the caller-visible attributes of a style.
func describeStyle(f *excelize.File, styleID int) map[string]any {
	formatting := map[string]any{}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return formatting
	}
	if style.Font != nil {
		formatting["font_bold"] = style.Font.Bold
		if style.Font.Size > 0 {
			formatting["font_size"] = style.Font.Size
		}
		if style.Font.Color != "" {
			formatting["font_color"] = style.Font.Color
		}
	}
	if style.Fill.Type == "pattern" && len(style.Fill.Color) > 0 {
		formatting["bg_color"] = style.Fill.Color[0]
	}
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		formatting["number_format"] = *style.CustomNumFmt
	}
	return formatting
}

// handleFormatRange applies formatting to a cell range. Requested
// attributes are merged into each cell's existing style rather than
// replacing it, so bolding a coloured cell keeps its colour.
func handleFormatRange(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	startRef, err := args.requireStr("start_cell")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}

	start, err := ParseAddress(startRef)
	if err != nil {
		return nil, err
	}
	end := start
	endRef := args.str("end_cell")
	if endRef != "" {
		if end, err = ParseAddress(endRef); err != nil {
			return nil, err
		}
		if start.Row > end.Row || start.Col > end.Col {
			return nil, &RangeSyntaxError{Ref: startRef + ":" + endRef, Message: "start cell must be before end cell"}
		}
	}
	cellRange := CellRange{Start: start, End: end}

	patch, applied := buildStylePatch(args)

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"range":      cellRange.String(),
	}).Info("Formatting cell range")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}

		for row := cellRange.Start.Row; row <= cellRange.End.Row; row++ {
			for col := cellRange.Start.Col; col <= cellRange.End.Col; col++ {
				cell := FormatAddress(col, row)

				existing := &excelize.Style{}
				if styleID, err := f.GetCellStyle(sheetName, cell); err == nil && styleID > 0 {
					if style, err := f.GetStyle(styleID); err == nil && style != nil {
						existing = style
					}
				}

				styleID, err := f.NewStyle(mergeStyles(existing, patch))
				if err != nil {
					return nil, &WorkbookError{Operation: "format", Path: filePath, Cause: err}
				}
				if err := f.SetCellStyle(sheetName, cell, cell, styleID); err != nil {
					return nil, &WorkbookError{Operation: "format", Path: filePath, Cause: err}
				}
			}
		}

		if args.boolOr("merge_cells", false) && endRef != "" {
			if err := f.MergeCell(sheetName, start.String(), end.String()); err != nil {
				return nil, &WorkbookError{Operation: "merge", Path: filePath, Cause: err}
			}
		}

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		return map[string]any{
			"status":             "success",
			"file_path":          filePath,
			"sheet_name":         sheetName,
			"range":              cellRange.String(),
			"formatting_applied": applied,
		}, nil
	})
}

// buildStylePatch translates the flat formatting arguments into a style
// patch to merge per cell, plus the echo of what was requested.
func buildStylePatch(args arguments) (*excelize.Style, map[string]any) {
	patch := &excelize.Style{}

	bold := args.boolOr("bold", false)
	italic := args.boolOr("italic", false)
	underline := args.boolOr("underline", false)
	fontSize := args.floatOr("font_size", 0)
	fontColor := normalizeColor(args.str("font_color"))
	bgColor := normalizeColor(args.str("bg_color"))
	borderStyle := args.str("border_style")
	borderColor := normalizeColor(args.str("border_color"))
	numberFormat := args.str("number_format")
	alignment := args.str("alignment")
	wrapText := args.boolOr("wrap_text", false)

	if bold || italic || underline || fontSize > 0 || fontColor != "" {
		font := &excelize.Font{Bold: bold, Italic: italic}
		if underline {
			font.Underline = "single"
		}
		if fontSize > 0 {
			font.Size = fontSize
		}
		font.Color = fontColor
		patch.Font = font
	}

	if bgColor != "" {
		patch.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bgColor}}
	}

	if borderStyle != "" && borderColor != "" {
		style := borderStyleCode(borderStyle)
		patch.Border = []excelize.Border{
			{Type: "left", Style: style, Color: borderColor},
			{Type: "right", Style: style, Color: borderColor},
			{Type: "top", Style: style, Color: borderColor},
			{Type: "bottom", Style: style, Color: borderColor},
		}
	}

	if alignment != "" || wrapText {
		patch.Alignment = &excelize.Alignment{
			Horizontal: strings.ToLower(alignment),
			WrapText:   wrapText,
		}
	}

	if numberFormat != "" {
		patch.CustomNumFmt = &numberFormat
	}

	echo := map[string]any{
		"bold":          bold,
		"italic":        italic,
		"underline":     underline,
		"font_size":     fontSize,
		"font_color":    args.str("font_color"),
		"bg_color":      args.str("bg_color"),
		"border_style":  borderStyle,
		"border_color":  args.str("border_color"),
		"number_format": numberFormat,
		"alignment":     alignment,
		"wrap_text":     wrapText,
		"merge_cells":   args.boolOr("merge_cells", false),
	}

	return patch, echo
}

// mergeStyles overlays a patch onto an existing style. Attributes the
// patch does not set keep their existing values.
func mergeStyles(existing, patch *excelize.Style) *excelize.Style {
	merged := &excelize.Style{}

	if patch.Font != nil {
		merged.Font = &excelize.Font{}
		if existing.Font != nil {
			*merged.Font = *existing.Font
		}
		if patch.Font.Bold {
			merged.Font.Bold = true
		}
		if patch.Font.Italic {
			merged.Font.Italic = true
		}
		if patch.Font.Underline != "" {
			merged.Font.Underline = patch.Font.Underline
		}
		if patch.Font.Size > 0 {
			merged.Font.Size = patch.Font.Size
		}
		if patch.Font.Color != "" {
			merged.Font.Color = patch.Font.Color
		}
	} else {
		merged.Font = existing.Font
	}

	if patch.Fill.Type != "" {
		merged.Fill = patch.Fill
	} else {
		merged.Fill = existing.Fill
	}

	if len(patch.Border) > 0 {
		merged.Border = patch.Border
	} else {
		merged.Border = existing.Border
	}

	if patch.Alignment != nil {
		merged.Alignment = patch.Alignment
	} else {
		merged.Alignment = existing.Alignment
	}

	if patch.CustomNumFmt != nil {
		merged.CustomNumFmt = patch.CustomNumFmt
	} else {
		merged.CustomNumFmt = existing.CustomNumFmt
		merged.NumFmt = existing.NumFmt
	}

	return merged
}

func borderStyleCode(style string) int {
	styles := map[string]int{
		"thin":   1,
		"medium": 2,
		"dashed": 3,
		"dotted": 4,
		"thick":  5,
		"double": 6,
		"hair":   7,
	}
	if code, ok := styles[style]; ok {
		return code
	}
	return 1
}

// normalizeColor strips a leading # and uppercases a hex colour so callers
// can pass either "#ff0000" or "FF0000".
func normalizeColor(color string) string {
	color = strings.TrimPrefix(strings.TrimSpace(color), "#")
	return strings.ToUpper(color)
}

// handleAutofitColumns sizes columns to their longest value. With no
// columns argument every populated column is adjusted.
func handleAutofitColumns(ctx context.Context, logger *logrus.Logger, args arguments) (map[string]any, error) {
	filePath, err := args.requireStr("file_path")
	if err != nil {
		return nil, err
	}
	sheetName, err := args.requireStr("sheet_name")
	if err != nil {
		return nil, err
	}
	if err := validateExtension(filePath); err != nil {
		return nil, err
	}
	requested, err := args.strSlice("columns")
	if err != nil {
		return nil, err
	}
	for _, letter := range requested {
		if _, err := ParseAddress(strings.ToUpper(letter) + "1"); err != nil {
			return nil, &AddressError{Ref: letter, Message: "not a valid column letter"}
		}
	}

	logger.WithFields(logrus.Fields{
		"file_path":  filePath,
		"sheet_name": sheetName,
		"columns":    requested,
	}).Info("Autofitting columns")

	return withExclusiveLock(filePath, logger, func() (map[string]any, error) {
		f, _, err := openWorkbook(filePath, false)
		if err != nil {
			return nil, err
		}
		defer closeWorkbook(f, logger)

		if err := resolveSheet(f, sheetName, false, loadedExisting); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, &WorkbookError{Operation: "read", Path: filePath, Cause: err}
		}

		// Longest value per populated column, keyed by 1-based index.
		widths := map[int]int{}
		for _, row := range rows {
			for colIdx, value := range row {
				if value != "" && len(value) > widths[colIdx+1] {
					widths[colIdx+1] = len(value)
				}
			}
		}

		targets := map[int]bool{}
		if len(requested) > 0 {
			for _, letter := range requested {
				addr, _ := ParseAddress(strings.ToUpper(letter) + "1")
				targets[addr.Col] = true
			}
		} else {
			for col := range widths {
				targets[col] = true
			}
		}

		adjusted := make([]string, 0, len(targets))
		for col := range targets {
			name := columnName(col)
			if err := f.SetColWidth(sheetName, name, name, float64(widths[col]+2)); err != nil {
				logger.WithError(err).WithField("column", name).Warn("Failed to set column width")
				continue
			}
			adjusted = append(adjusted, name)
		}
		sort.Strings(adjusted)

		if err := saveWorkbook(f, filePath, logger); err != nil {
			return nil, err
		}

		return map[string]any{
			"status":          "success",
			"file_path":       filePath,
			"sheet_name":      sheetName,
			"columns_autofit": adjusted,
		}, nil
	})
}
