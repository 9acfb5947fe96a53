package normalization

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// ParseDate accepts the date spellings seen in HR workbooks plus raw Excel
// serial numbers. Blank input returns ok=false and no error. The result is
// midnight UTC.
func ParseDate(raw string) (time.Time, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" || isNullToken(s) {
		return time.Time{}, false, nil
	}
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil && y >= 1900 && y <= 2200 {
			return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || f < minExcelSerial || f > maxExcelSerial {
			return time.Time{}, false, fmt.Errorf("date serial %q out of range", s)
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("date serial %q: %w", s, err)
		}
		return truncateDay(t), true, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q", s)
}

// ParseDatePtr is ParseDate returning nil for blank input.
func ParseDatePtr(raw string) (*time.Time, error) {
	t, ok, err := ParseDate(raw)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
