// Command wwvb-sensor tracks a WWVB receiver's carrier samples,
// decodes broadcast minutes and publishes them to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/wwvb-sensor/internal/config"
	"github.com/sweeney/wwvb-sensor/internal/mqtt"
	"github.com/sweeney/wwvb-sensor/internal/sample"
	"github.com/sweeney/wwvb-sensor/internal/status"
	"github.com/sweeney/wwvb-sensor/internal/steer"
	"github.com/sweeney/wwvb-sensor/internal/web"
	"github.com/sweeney/wwvb-sensor/internal/wwvb"
)

func main() {
	def := config.Default()

	configPath := flag.String("config", "", "YAML config file (flags override its settings)")
	rate := flag.Int("rate", def.Decoder.TicksPerSecond, "Samples per second")
	symbols := flag.Int("symbols", def.Decoder.Symbols, "Symbol ring size (61 covers a full minute frame)")
	source := flag.String("source", def.Source.Type, "Sample source: gpio, serial or stdin")
	pin := flag.Int("pin", def.Source.GPIO.Pin, "BCM pin number for the receiver output")
	invert := flag.Bool("invert", def.Source.GPIO.Invert, "Invert the GPIO sense")
	device := flag.String("device", def.Source.Serial.Device, "Serial device for a serial-attached receiver")
	baud := flag.Int("baud", def.Source.Serial.Baud, "Serial baud rate")
	broker := flag.String("broker", def.MQTT.Broker, "MQTT broker address")
	publishSymbols := flag.Bool("publish-symbols", def.MQTT.PublishSymbols, "Publish every classified symbol (one message per second)")
	httpAddr := flag.String("http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	zone := flag.Int("zone", def.Display.ZoneHours, "Local zone, hours west of UTC")
	dst := flag.Bool("dst", def.Display.ObserveDST, "Observe DST when rendering local time")
	steerTicker := flag.Bool("steer", def.Steer.Enabled, "Steer the sample ticker against the broadcast")
	adjustClock := flag.Bool("adjust-clock", def.Steer.AdjustClock, "Also slew the kernel clock (Linux only)")
	printCarrier := flag.Bool("print-carrier", false, "Print one second of carrier samples and exit")

	flag.Parse()

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		cfg = loaded
	}

	// Only flags the user actually set override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.Decoder.TicksPerSecond = *rate
		case "symbols":
			cfg.Decoder.Symbols = *symbols
		case "source":
			cfg.Source.Type = *source
		case "pin":
			cfg.Source.GPIO.Pin = *pin
		case "invert":
			cfg.Source.GPIO.Invert = *invert
		case "device":
			cfg.Source.Serial.Device = *device
		case "baud":
			cfg.Source.Serial.Baud = *baud
		case "broker":
			cfg.MQTT.Broker = *broker
		case "publish-symbols":
			cfg.MQTT.PublishSymbols = *publishSymbols
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "heartbeat":
			cfg.Heartbeat = heartbeat.String()
		case "zone":
			cfg.Display.ZoneHours = *zone
		case "dst":
			cfg.Display.ObserveDST = *dst
		case "steer":
			cfg.Steer.Enabled = *steerTicker
		case "adjust-clock":
			cfg.Steer.AdjustClock = *adjustClock
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printCarrier); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newSource(cfg *config.Config) (sample.Source, error) {
	switch cfg.Source.Type {
	case "gpio":
		return sample.NewGPIO(cfg.Source.GPIO.Pin, cfg.Source.GPIO.Invert)
	case "serial":
		return sample.NewSerial(cfg.Source.Serial.Device, cfg.Source.Serial.Baud)
	case "stdin":
		return sample.NewText(os.Stdin), nil
	}
	return nil, fmt.Errorf("source.type %q: want gpio, serial or stdin", cfg.Source.Type)
}

// printCarrierLine reads one second of samples and prints them in the
// text encoding, for checking receiver wiring and polarity.
func printCarrierLine(src sample.Source, ticksPerSecond int, w io.Writer) error {
	line := make([]byte, 0, ticksPerSecond+1)
	for i := 0; i < ticksPerSecond; i++ {
		reduced, err := src.ReadSample()
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		if reduced {
			line = append(line, '_')
		} else {
			line = append(line, '#')
		}
	}
	line = append(line, '\n')
	_, err := w.Write(line)
	return err
}

func run(cfg *config.Config, printCarrier bool) error {
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	if printCarrier {
		return printCarrierLine(src, cfg.Decoder.TicksPerSecond, os.Stdout)
	}

	dec := wwvb.New(cfg.DecoderSettings())

	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	defer publisher.Close()

	heartbeat, err := cfg.HeartbeatInterval()
	if err != nil {
		return err
	}

	// Initialize status tracker (before STARTUP so a snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TicksPerSecond: cfg.Decoder.TicksPerSecond,
		HealthPercent:  cfg.Decoder.HealthPercent,
		HeartbeatMs:    heartbeat.Milliseconds(),
		Source:         cfg.Source.Type,
		Broker:         cfg.MQTT.Broker,
		HTTPAddr:       cfg.HTTP.Addr,
		ZoneHours:      cfg.Display.ZoneHours,
		ObserveDST:     cfg.Display.ObserveDST,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	var metrics *web.Metrics
	var live *web.LiveHub
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		metrics = srv.Metrics()
		live = srv.Live()
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	base := cfg.TickPeriod()
	ticker := time.NewTicker(base)
	defer ticker.Stop()

	var servo *steer.Servo
	var adjust func(ppm float64)
	if cfg.Steer.Enabled {
		servo = steer.New(steer.Config{
			Kp:     cfg.Steer.Kp,
			Ki:     cfg.Steer.Ki,
			MaxPPM: cfg.Steer.MaxPPM,
		})
		adjustKernel := cfg.Steer.AdjustClock
		if adjustKernel {
			// Probe now so a platform without adjtimex fails at
			// startup instead of once the servo engages.
			if _, err := steer.Frequency(); err != nil {
				return fmt.Errorf("adjust clock: %w", err)
			}
		}
		adjust = func(ppm float64) {
			// Positive ppm means the local clock runs fast against the
			// broadcast: stretch the sample period and slow the kernel
			// clock to match.
			ticker.Reset(time.Duration(float64(base) * (1 + ppm*1e-6)))
			if adjustKernel {
				if err := steer.SetFrequency(-ppm); err != nil {
					log.Printf("steer: set frequency: %v", err)
				}
			}
		}
		log.Printf("clock steering enabled: kp=%.1f ki=%.2f max=%.0fppm adjust_clock=%v",
			cfg.Steer.Kp, cfg.Steer.Ki, cfg.Steer.MaxPPM, adjustKernel)
	}

	log.Printf("started: rate=%d/s source=%s broker=%s heartbeat=%v",
		cfg.Decoder.TicksPerSecond, cfg.Source.Type, cfg.MQTT.Broker, heartbeat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		dec:            dec,
		src:            src,
		pub:            publisher,
		conn:           publisher,
		tracker:        tracker,
		metrics:        metrics,
		live:           live,
		servo:          servo,
		adjust:         adjust,
		publishSymbols: cfg.MQTT.PublishSymbols,
		heartbeat:      heartbeat,
		now:            time.Now,
	}
	return runLoop(d, ticker.C, sigCh)
}

// daemon bundles the run loop collaborators so tests can swap in fakes.
type daemon struct {
	dec  *wwvb.Decoder
	src  sample.Source
	pub  mqtt.Publisher
	conn mqtt.ConnectionStatus

	tracker *status.Tracker
	metrics *web.Metrics
	live    *web.LiveHub

	servo  *steer.Servo
	adjust func(ppm float64)

	publishSymbols bool
	heartbeat      time.Duration
	now            func() time.Time

	counters      status.Counters
	phaseRef      int
	phaseSet      bool
	lastHeartbeat time.Time
	lastBoundary  time.Time
}

func runLoop(d *daemon, tick <-chan time.Time, sig <-chan os.Signal) error {
	start := d.now()
	d.lastHeartbeat = start
	d.lastBoundary = start

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			shutdown(d, signalName)
			return nil

		case <-tick:
			t := d.now()
			reduced, err := d.src.ReadSample()
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Printf("sample source exhausted, shutting down")
					shutdown(d, "EOF")
					return nil
				}
				log.Printf("sample read error: %v", err)
				continue
			}

			boundary := d.dec.Update(reduced)
			d.counters.Samples = d.dec.Samples()
			d.metrics.ObserveSample()
			if boundary {
				d.onSymbol(t)
			}
		}
	}
}

// onSymbol handles one classified symbol: frame decoding on marks,
// telemetry, steering and the heartbeat.
func (d *daemon) onSymbol(t time.Time) {
	sym := d.dec.LastSymbol()
	healthPct := d.dec.HealthPercent()
	healthy := d.dec.Healthy()
	sos := d.dec.StartOfSecond()
	d.counters.Symbols = d.dec.SymbolCount()

	if sym == wwvb.Mark {
		d.counters.Attempts++
		d.metrics.ObserveAttempt()
		if tm, ok := d.dec.DecodeMinute(); ok {
			d.counters.Minutes++
			d.tracker.RecordMinute(tm, t)
			d.metrics.ObserveMinute(t)
			log.Printf("minute: %s (health %.1f%%)", tm, healthPct)
			event := mqtt.MinuteEvent{Time: tm, ReceivedAt: t, HealthPercent: healthPct}
			if err := d.pub.PublishMinute(event); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}
	}

	if d.publishSymbols {
		event := mqtt.SymbolEvent{
			Timestamp:     t,
			Symbol:        sym.String(),
			HealthPercent: healthPct,
			StartOfSecond: sos,
		}
		if err := d.pub.PublishSymbol(event); err != nil {
			log.Printf("publish error: %v", err)
		}
	}

	if d.servo != nil {
		if healthy && !d.phaseSet {
			d.phaseRef = sos
			d.phaseSet = true
			log.Printf("steering reference locked at tick %d", sos)
		}
		if d.phaseSet {
			ppm, active := d.servo.Update(d.dec.PhaseError(d.phaseRef), healthy, t.Sub(d.lastBoundary))
			d.metrics.SetSteerPPM(ppm)
			if active && d.adjust != nil {
				d.adjust(ppm)
			}
		}
	}
	d.lastBoundary = t

	if d.conn != nil {
		connected := d.conn.IsConnected()
		d.tracker.SetMQTTConnected(connected)
		d.metrics.SetMQTTConnected(connected)
	}
	d.tracker.Update(sym, healthPct, healthy, sos, d.counters)
	d.metrics.ObserveSymbol(sym, healthPct, healthy, sos)
	d.live.Broadcast(web.StatusUpdate(d.tracker.Snapshot()))

	if d.heartbeat > 0 && t.Sub(d.lastHeartbeat) >= d.heartbeat {
		d.lastHeartbeat = t
		snap := d.tracker.Snapshot()
		log.Printf("heartbeat: health=%.1f%% symbols=%d attempts=%d minutes=%d",
			snap.HealthPercent, snap.Counters.Symbols, snap.Counters.Attempts, snap.Counters.Minutes)
		event := mqtt.SystemEvent{
			Timestamp:  t,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
		}
		if err := d.pub.PublishSystem(event); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}
}

// shutdown publishes the retained SHUTDOWN event with a final snapshot.
func shutdown(d *daemon, reason string) {
	event := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if d.tracker != nil {
		if d.conn != nil {
			d.tracker.SetMQTTConnected(d.conn.IsConnected())
		}
		snap := d.tracker.Snapshot()
		event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", reason)
	}
	if err := d.pub.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}
