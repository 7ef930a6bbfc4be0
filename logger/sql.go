package logger

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const tmFmtWithMS = "2006-01-02 15:04:05.999"

func isPrintable(s []byte) bool {
	for _, r := range s {
		if !unicode.IsPrint(rune(r)) {
			return false
		}
	}
	return true
}

// ExplainSQL renders a statement with its arguments inlined, for logs only.
// numericPlaceholder must capture the 1-based argument index, e.g. `\$(\d+)`;
// nil means positional `?` placeholders.
func ExplainSQL(sql string, numericPlaceholder *regexp.Regexp, escaper string, vars ...interface{}) string {
	rendered := make([]string, len(vars))
	for idx, v := range vars {
		if valuer, ok := v.(driver.Valuer); ok {
			v, _ = valuer.Value()
		}

		switch v := v.(type) {
		case bool:
			rendered[idx] = strconv.FormatBool(v)
		case time.Time:
			rendered[idx] = escaper + v.Format(tmFmtWithMS) + escaper
		case []byte:
			if isPrintable(v) {
				rendered[idx] = escaper + strings.ReplaceAll(string(v), escaper, "\\"+escaper) + escaper
			} else {
				rendered[idx] = escaper + "<binary>" + escaper
			}
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			rendered[idx] = fmt.Sprintf("%d", v)
		case float32:
			rendered[idx] = strconv.FormatFloat(float64(v), 'f', -1, 32)
		case float64:
			rendered[idx] = strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			rendered[idx] = escaper + strings.ReplaceAll(v, escaper, "\\"+escaper) + escaper
		default:
			if v == nil {
				rendered[idx] = "NULL"
			} else {
				rendered[idx] = escaper + strings.ReplaceAll(fmt.Sprint(v), escaper, "\\"+escaper) + escaper
			}
		}
	}

	if numericPlaceholder == nil {
		var b strings.Builder
		next := 0
		for _, r := range sql {
			if r == '?' && next < len(rendered) {
				b.WriteString(rendered[next])
				next++
				continue
			}
			b.WriteRune(r)
		}
		return b.String()
	}

	return numericPlaceholder.ReplaceAllStringFunc(sql, func(m string) string {
		sub := numericPlaceholder.FindStringSubmatch(m)
		if len(sub) < 2 {
			return m
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > len(rendered) {
			return m
		}
		return rendered[n-1]
	})
}
