package desktop

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_DefaultOpenUsesSystemBrowser(t *testing.T) {
	var got []string
	prev := openURL
	openURL = func(u string) error {
		got = append(got, u)
		return errors.New("no display")
	}
	defer func() { openURL = prev }()

	l := New(Options{}, zerolog.Nop())
	if err := l.opts.Open("http://127.0.0.1:4321"); err == nil || err.Error() != "no display" {
		t.Fatalf("open err=%v", err)
	}
	if len(got) != 1 || got[0] != "http://127.0.0.1:4321" {
		t.Fatalf("opened=%v", got)
	}
}
