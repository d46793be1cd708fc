package google

import (
	"fmt"
	"strings"
)

// findMonthRow returns the 1-based row holding month in column A, or the first
// row after the data when month is absent.
func findMonthRow(column [][]any, month string) (row int, found bool) {
	for i, cells := range column {
		if len(cells) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cells[0])) == month {
			return i + 1, true
		}
	}
	return len(column) + 1, false
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}
