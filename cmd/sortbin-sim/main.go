package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"

	"sortbin/config"
	"sortbin/core"
	"sortbin/sim"
)

var (
	configPath = flag.String("config", "", "Board configuration JSON (defaults when empty)")
	readings   = flag.String("readings", "", "Comma separated sensor triples, presence/moisture/metallic, e.g. 100,110")
	useStdin   = flag.Bool("stdin", false, "Read sensor triples and commands from stdin")
	debug      = flag.Bool("debug", false, "Enable debug output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Debug = true
	}

	core.SetDebugWriter(func(s string) { fmt.Println("  debug:", s) })
	core.SetDebugEnabled(cfg.Debug)
	if core.IsDebugEnabled() {
		fmt.Println("Debug output enabled")
	}

	bench, err := sim.NewBench(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	r := &runner{bench: bench, out: os.Stdout}

	if *readings != "" {
		for _, tok := range strings.Split(*readings, ",") {
			if err := r.exec(strings.TrimSpace(tok)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	if *useStdin {
		if err := r.script(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *readings == "" && !*useStdin {
		fmt.Println("Nothing to do: pass -readings or -stdin")
		flag.PrintDefaults()
		return
	}

	fmt.Println()
	r.events()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return config.LoadConfig(data)
}

// runner drives a bench from textual commands
type runner struct {
	bench *sim.Bench
	out   io.Writer
	quit  bool
}

// script reads commands line by line. A line holds one or more tokens
// separated by blanks; quoting and # comments follow shell rules.
func (r *runner) script(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() && !r.quit {
		tokens, err := shlex.Split(scanner.Text())
		if err != nil {
			return fmt.Errorf("parse %q: %w", scanner.Text(), err)
		}
		for _, tok := range tokens {
			if err := r.exec(tok); err != nil {
				return err
			}
			if r.quit {
				break
			}
		}
	}
	return scanner.Err()
}

// exec runs one token: a sensor triple or a command word
func (r *runner) exec(tok string) error {
	switch tok {
	case "":
		return nil
	case "quit", "exit", "q":
		r.quit = true
		return nil
	case "events":
		r.events()
		return nil
	case "state":
		c := r.bench.Controller
		fmt.Fprintf(r.out, "state=%s cycles=%d t=%v\n", c.State(), c.Cycles(), r.bench.Clock.Now())
		return nil
	}

	reading, err := parseReading(tok)
	if err != nil {
		return err
	}
	r.cycle(reading)
	return nil
}

func (r *runner) cycle(reading core.SensorReading) {
	b := r.bench
	start := b.Clock.Now()
	pulses := len(b.ActuatorPulses())

	b.Present(reading)
	rep, err := b.Controller.Cycle()

	fmt.Fprintf(r.out, "cycle %d: %s -> %-9s display=%q", rep.Cycle, reading, rep.Class.Label(), b.Display.Row())
	if all := b.ActuatorPulses(); len(all) > pulses {
		fmt.Fprintf(r.out, " pulse=%v", all[len(all)-1])
	} else {
		fmt.Fprint(r.out, " pulse=none")
	}
	fmt.Fprintf(r.out, " elapsed=%v\n", b.Clock.Now()-start)
	if err != nil {
		fmt.Fprintf(r.out, "  error: %v\n", err)
	}
}

func (r *runner) events() {
	fmt.Fprintln(r.out, "Event ring:")
	for _, e := range core.EventRingSnapshot() {
		fmt.Fprintf(r.out, "  cycle %-4d %-9s %d %d\n", e.Cycle, core.EventName(e.EventType), e.Value1, e.Value2)
	}
}

// parseReading parses a presence/moisture/metallic triple such as "110"
func parseReading(s string) (core.SensorReading, error) {
	if len(s) != 3 {
		return core.SensorReading{}, fmt.Errorf("reading %q: want three 0/1 digits", s)
	}
	var bits [3]bool
	for i := 0; i < 3; i++ {
		switch s[i] {
		case '0':
		case '1':
			bits[i] = true
		default:
			return core.SensorReading{}, fmt.Errorf("reading %q: want three 0/1 digits", s)
		}
	}
	return core.SensorReading{Presence: bits[0], Moisture: bits[1], Metallic: bits[2]}, nil
}
