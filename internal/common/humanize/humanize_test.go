package humanize

import (
	"testing"
	"time"
)

func TestBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1 MB"},
		{1 << 30, "1 GB"},
		{1321098329, "1.23 GB"},
		{5 << 50, "5120 TB"},
	}
	for _, c := range cases {
		if got := Bytes(c.in); got != c.want {
			t.Fatalf("Bytes(%d)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 11, 5, 14, 3, 27, 0, time.UTC)
	if got := Timestamp(ts, time.UTC); got != "2024/11/5 14:03:27" {
		t.Fatalf("got %q", got)
	}
	if got := Timestamp(time.Time{}, time.UTC); got != "" {
		t.Fatalf("zero time got %q", got)
	}
}
