package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// utf8BOM makes spreadsheet applications detect UTF-8.
const utf8BOM = "\ufeff"

// CSVHeader is the header row of an exported report.
var CSVHeader = []string{"title", "durationSec", "over3hours"}

// WriteCSV writes the report items as CSV: UTF-8 with a leading BOM, CRLF
// line endings, and every value double-quoted.
func WriteCSV(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM + strings.Join(CSVHeader, ",") + "\r\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range r.Items {
		over := ""
		if it.Over3Hours != nil {
			over = *it.Over3Hours
		}
		row := quote(it.Title) + "," + quote(strconv.FormatInt(it.DurationSec, 10)) + "," + quote(over) + "\r\n"
		if _, err := bw.WriteString(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename returns report_{type}_{from}_{to}.csv with dates in loc.
func Filename(t Type, from, to time.Time, loc *time.Location) string {
	if loc != nil {
		from, to = from.In(loc), to.In(loc)
	}
	return fmt.Sprintf("report_%s_%s_%s.csv", t, from.Format(time.DateOnly), to.Format(time.DateOnly))
}
