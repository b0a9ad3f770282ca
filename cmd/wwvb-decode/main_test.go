package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sweeney/wwvb-sensor/internal/wwvb"
)

// goodMinute is a complete broadcast frame for 2021-275 18:23 UTC
// (daylight time in effect, DUT1 -0.2 s) followed by the opening
// marker of the next minute.
const goodMinute = "M01000011M000101000M001000111M010100010M001000010M000100011MM"

// carrierText renders symbols in the text encoding, one line per
// broadcast second.
func carrierText(symbols string) string {
	tps := wwvb.DefaultTicksPerSecond
	var b strings.Builder
	for _, c := range symbols {
		var reduced int
		switch c {
		case '0':
			reduced = tps / 5
		case '1':
			reduced = tps / 2
		case 'M':
			reduced = tps * 4 / 5
		}
		for i := 0; i < tps; i++ {
			if i < reduced {
				b.WriteByte('_')
			} else {
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestRunDecodesRecording(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader(carrierText(goodMinute)), &out, wwvb.DefaultTicksPerSecond, 0, false, false)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "[  60.00]") {
		t.Errorf("output missing elapsed time:\n%s", got)
	}
	if !strings.Contains(got, "2021-275 18:23:00") {
		t.Errorf("output missing broadcast timestamp:\n%s", got)
	}
	if !strings.Contains(got, "utc 2021-10-02T18:23:00Z") {
		t.Errorf("output missing UTC timestamp:\n%s", got)
	}
	if !strings.Contains(got, "local 2021-10-02 18:23:00  health") {
		t.Errorf("output missing zone-0 local time:\n%s", got)
	}
	if !strings.Contains(got, "health 98.4%") {
		t.Errorf("output missing health:\n%s", got)
	}
	if !strings.Contains(got, "samples=3050 symbols=61 minutes=1") {
		t.Errorf("output missing summary:\n%s", got)
	}
}

func TestRunRendersLocalZone(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader(carrierText(goodMinute)), &out, wwvb.DefaultTicksPerSecond, 7, true, false)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	// 18:23 UTC, 7 hours west, daylight in effect: 12:23 local.
	if !strings.Contains(out.String(), "local 2021-10-02 12:23:00 DST") {
		t.Errorf("output missing local daylight time:\n%s", out.String())
	}
}

func TestRunIgnoresForeignBytes(t *testing.T) {
	// Receiver boards interleave debug chatter with the sample stream.
	noisy := "booting rx v2\n" + strings.ReplaceAll(carrierText(goodMinute), "\n", " ok\n")
	var out bytes.Buffer
	err := run(strings.NewReader(noisy), &out, wwvb.DefaultTicksPerSecond, 0, false, false)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !strings.Contains(out.String(), "minutes=1") {
		t.Errorf("expected a decode despite interleaved chatter:\n%s", out.String())
	}
}

func TestRunEmptyInput(t *testing.T) {
	var out bytes.Buffer
	if err := run(strings.NewReader(""), &out, wwvb.DefaultTicksPerSecond, 0, false, false); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if got := out.String(); got != "samples=0 symbols=0 minutes=0\n" {
		t.Errorf("summary: got %q", got)
	}
}

func TestRunNoDecodableFrame(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader(carrierText("000M000")), &out, wwvb.DefaultTicksPerSecond, 0, false, false)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !strings.Contains(out.String(), "minutes=0") {
		t.Errorf("expected no decoded minutes:\n%s", out.String())
	}
}

func TestRunDumpsSymbols(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader(carrierText(goodMinute)), &out, wwvb.DefaultTicksPerSecond, 0, false, true)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	// A newline after every marker lays the frame out one group per line.
	got := out.String()
	for _, group := range []string{"01000011M\n", "000101000M\n", "000100011M\n"} {
		if !strings.Contains(got, group) {
			t.Errorf("symbol dump missing group %q:\n%s", group, got)
		}
	}
	if !strings.Contains(got, "minutes=1") {
		t.Errorf("summary missing from symbol dump run:\n%s", got)
	}
}

func TestRunRejectsBadRate(t *testing.T) {
	var out bytes.Buffer
	if err := run(strings.NewReader(""), &out, 5, 0, false, false); err == nil {
		t.Fatal("expected error for a rate below the decoder minimum")
	}
}
