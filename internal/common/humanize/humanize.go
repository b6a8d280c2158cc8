// Package humanize formats sizes and timestamps for display.
package humanize

import (
	"math"
	"strconv"
	"time"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// Bytes formats n with 1024-based units and at most two decimals:
// 0 -> "0 Bytes", 1024 -> "1 KB", 1536 -> "1.5 KB".
func Bytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(byteUnits)-1 {
		f /= 1024
		i++
	}
	v := math.Round(f*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// TimestampLayout is the display layout for modification times.
const TimestampLayout = "2006/1/2 15:04:05"

// Timestamp formats t in loc (time.Local when nil). The zero time yields "".
func Timestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}
