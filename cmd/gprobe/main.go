package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/mastercactapus/gprobe/config"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/mastercactapus/gprobe/machine/smoothie"
	"github.com/mastercactapus/gprobe/sim"
	"github.com/mastercactapus/gprobe/spjs"
	"github.com/rs/zerolog"
)

const (
	exitOK          = 0
	exitUnsupported = 1
	exitFailed      = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func newLogger(verbose bool, out io.Writer, extra ...io.Writer) zerolog.Logger {
	var w io.Writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	if len(extra) > 0 {
		w = zerolog.MultiLevelWriter(append([]io.Writer{w}, extra...)...)
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// openChannel connects to the controller named by cfg. The returned closer
// may be nil.
func openChannel(cfg *config.Config, stdin io.Reader, stdout io.Writer, log zerolog.Logger) (smoothie.LineChannel, io.Closer, error) {
	switch {
	case cfg.Simulate != "":
		c, err := sim.Preset(cfg.Simulate, &cfg.Options, log.With().Str("component", "sim").Logger())
		return c, nil, err
	case cfg.SPJS != "":
		sp := spjs.NewSPJS(cfg.SPJS, log)
		return spjs.NewChannel(sp, cfg.Port, cfg.Baud, cfg.Timeout, log), sp, nil
	case cfg.Port == config.Stdio:
		return smoothie.NewStreamChannel(stdin, stdout, cfg.Timeout), nil, nil
	}

	port, err := smoothie.OpenSerial(cfg.Port, cfg.Baud)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	return smoothie.NewLineChannel(port, cfg.Timeout), port, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, ".env", stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return exitFailed
	}

	if !slices.Contains(machine.Jobs, cfg.Job) {
		fmt.Fprintf(stderr, "job %s Not yet supported\n", cfg.Job)
		return exitUnsupported
	}

	// stdout carries the protocol when talking over stdio
	report := stdout
	if cfg.Simulate == "" && cfg.SPJS == "" && cfg.Port == config.Stdio {
		report = stderr
	}

	var ev *events
	var log zerolog.Logger
	if cfg.Events != "" {
		ev = newEvents(cfg.Events)
		log = newLogger(cfg.Verbose, stderr, ev)
		err = ev.Start(log)
		if err != nil {
			log.Error().Err(err).Msg("start event stream")
			return exitFailed
		}
		defer ev.Close()
	} else {
		log = newLogger(cfg.Verbose, stderr)
	}

	ch, closer, err := openChannel(cfg, stdin, stdout, log)
	if err != nil {
		log.Error().Err(err).Msg("connect")
		return exitFailed
	}
	if closer != nil {
		defer closer.Close()
	}

	conn := smoothie.NewConn(ch, cfg.DryRun, log.With().Str("component", "conn").Logger())
	m := machine.NewMachine(conn, &cfg.Options, log)
	s := machine.NewSession(m, log)

	res, err := s.Run(cfg.Job)
	if errors.Is(err, machine.ErrUnsupportedJob) {
		fmt.Fprintf(stderr, "job %s Not yet supported\n", cfg.Job)
		return exitUnsupported
	}
	if err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("probe failed")
		return exitFailed
	}

	fmt.Fprintln(report, res)
	if ev != nil {
		ev.Result(s.ID, cfg.Job, res)
	}
	return exitOK
}
