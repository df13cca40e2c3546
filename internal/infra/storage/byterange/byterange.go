// Package byterange разбирает заголовок Range в форме "bytes=START-END".
package byterange

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse возвращает включающие границы [start, end]. ok=false, диапазон не запрошен
// или не разобран, тогда отдаётся весь объект.
func Parse(header string, totalSize int64) (start, end int64, ok bool) {
	if totalSize <= 0 || !strings.HasPrefix(header, "bytes=") {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	switch {
	// bytes=A-B
	case parts[0] != "" && parts[1] != "":
		a, e1 := strconv.ParseInt(parts[0], 10, 64)
		b, e2 := strconv.ParseInt(parts[1], 10, 64)
		if e1 != nil || e2 != nil || a < 0 || b < a || a >= totalSize {
			return 0, 0, false
		}
		if b >= totalSize {
			b = totalSize - 1
		}
		return a, b, true

	// bytes=A-  (от A до конца)
	case parts[0] != "":
		a, e := strconv.ParseInt(parts[0], 10, 64)
		if e != nil || a < 0 || a >= totalSize {
			return 0, 0, false
		}
		return a, totalSize - 1, true

	// bytes=-N  (последние N байт)
	case parts[1] != "":
		n, e := strconv.ParseInt(parts[1], 10, 64)
		if e != nil || n <= 0 {
			return 0, 0, false
		}
		if n > totalSize {
			n = totalSize
		}
		return totalSize - n, totalSize - 1, true
	}
	return 0, 0, false
}

func ContentRange(start, end, total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", start, end, total)
}
