// Command wwvb-decode runs recorded carrier samples through the
// decoder and prints every minute frame it recovers. Input is the text
// encoding on stdin: '_' for reduced carrier, '#' for full, one byte
// per tick, anything else ignored.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sweeney/wwvb-sensor/internal/sample"
	"github.com/sweeney/wwvb-sensor/internal/wwvb"
)

func main() {
	rate := flag.Int("rate", wwvb.DefaultTicksPerSecond, "Samples per second of the recording")
	zone := flag.Int("zone", 0, "Local zone, hours west of UTC")
	dst := flag.Bool("dst", false, "Observe DST when rendering local time")
	symbols := flag.Bool("symbols", false, "Dump each classified symbol, one frame per line")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *rate, *zone, *dst, *symbols); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(r io.Reader, w io.Writer, ticksPerSecond, zoneHours int, observeDST, dumpSymbols bool) error {
	cfg := wwvb.Config{TicksPerSecond: ticksPerSecond}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dec := wwvb.New(cfg)
	src := sample.NewText(r)

	minutes := 0
	for {
		reduced, err := src.ReadSample()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		if !dec.Update(reduced) {
			continue
		}
		sym := dec.LastSymbol()
		if dumpSymbols {
			fmt.Fprint(w, sym)
			if sym == wwvb.Mark {
				fmt.Fprintln(w)
			}
		}
		if sym != wwvb.Mark {
			continue
		}
		tm, ok := dec.DecodeMinute()
		if !ok {
			continue
		}
		minutes++
		local := tm.Local(zoneHours, observeDST)
		suffix := ""
		if local.DST {
			suffix = " DST"
		}
		elapsed := float64(dec.Samples()) / float64(ticksPerSecond)
		fmt.Fprintf(w, "[%7.2f] %s  utc %s  local %s%s  health %.1f%%\n",
			elapsed, tm, tm.UTC().Format(time.RFC3339), local, suffix, dec.HealthPercent())
	}

	fmt.Fprintf(w, "samples=%d symbols=%d minutes=%d\n",
		dec.Samples(), dec.SymbolCount(), minutes)
	return nil
}
