package main

import (
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	pos, flags := splitArgs([]string{"Some Song", "2", "-date", "2024-01-02", "-out", "x.mp3"})
	if !reflect.DeepEqual(pos, []string{"Some Song", "2"}) {
		t.Errorf("positional = %v", pos)
	}
	if !reflect.DeepEqual(flags, []string{"-date", "2024-01-02", "-out", "x.mp3"}) {
		t.Errorf("flags = %v", flags)
	}

	pos, flags = splitArgs([]string{"only"})
	if len(pos) != 1 || flags != nil {
		t.Errorf("Unexpected split %v %v", pos, flags)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{0: "0:00", 59.9: "0:59", 61: "1:01", 3600: "60:00"}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%v) = %s, want %s", in, got, want)
		}
	}
}
