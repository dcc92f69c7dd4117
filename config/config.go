package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/mastercactapus/gprobe/machine"
	"github.com/mastercactapus/gprobe/machine/smoothie"
)

// Stdio selects the process stdin/stdout as the controller stream.
const Stdio = "-"

// Config is everything needed for one run: the job options plus where
// the controller is.
type Config struct {
	machine.Options

	// Port is a serial device path, Stdio, or the port name on the SPJS
	// server when SPJS is set.
	Port string
	Baud int

	// SPJS is a Serial Port JSON Server websocket URL.
	SPJS string

	// Timeout bounds each controller read. Zero waits forever.
	Timeout time.Duration

	// Simulate names a sim preset to run against instead of hardware.
	Simulate string

	// Events is a listen address for the session event stream.
	Events string
}

func Default() Config {
	return Config{
		Options: machine.DefaultOptions(),
		Port:    Stdio,
		Baud:    smoothie.DefaultBaud,
	}
}

// Validate checks option ranges and transport combinations. The job name
// is left to the session so an unsupported job is reported as such.
func (c Config) Validate() error {
	switch {
	case c.Width < 0, c.Length < 0, c.Diameter < 0:
		return errors.New("dimensions must not be negative")
	case c.ToolDiameter < 0:
		return errors.New("tool diameter must not be negative")
	case c.SafeZ <= 0:
		return errors.New("safe Z must be positive")
	case c.FeedRate < 0:
		return errors.New("feed rate must not be negative")
	case c.Points < 0:
		return errors.New("points must not be negative")
	case c.Baud <= 0:
		return errors.New("baud must be positive")
	case c.Timeout < 0:
		return errors.New("timeout must not be negative")
	case c.SPJS != "" && (c.Port == "" || c.Port == Stdio):
		return errors.New("spjs requires a port name")
	case c.Simulate == "" && c.SPJS == "" && c.Port == "":
		return errors.New("no controller port")
	}
	return nil
}

type fileConfig struct {
	Job          string  `toml:"job"`
	Width        float64 `toml:"width"`
	Length       float64 `toml:"length"`
	Diameter     float64 `toml:"diameter"`
	ToolDiameter float64 `toml:"tool_diameter"`
	SafeZ        float64 `toml:"safe_z"`
	FeedRate     float64 `toml:"feed_rate"`
	Points       int     `toml:"points"`
	DryRun       bool    `toml:"dry_run"`
	AutoAdjust   bool    `toml:"auto_adjust"`
	Verbose      bool    `toml:"verbose"`
	Port         string  `toml:"port"`
	Baud         int     `toml:"baud"`
	SPJS         string  `toml:"spjs"`
	Timeout      string  `toml:"timeout"`
	Simulate     string  `toml:"simulate"`
	Events       string  `toml:"events"`
}

// LoadFile overlays keys present in the TOML file at path.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("job") {
		c.Job = strings.TrimSpace(raw.Job)
	}
	if meta.IsDefined("width") {
		c.Width = raw.Width
	}
	if meta.IsDefined("length") {
		c.Length = raw.Length
	}
	if meta.IsDefined("diameter") {
		c.Diameter = raw.Diameter
	}
	if meta.IsDefined("tool_diameter") {
		c.ToolDiameter = raw.ToolDiameter
	}
	if meta.IsDefined("safe_z") {
		c.SafeZ = raw.SafeZ
	}
	if meta.IsDefined("feed_rate") {
		c.FeedRate = raw.FeedRate
	}
	if meta.IsDefined("points") {
		c.Points = raw.Points
	}
	if meta.IsDefined("dry_run") {
		c.DryRun = raw.DryRun
	}
	if meta.IsDefined("auto_adjust") {
		c.AutoAdjust = raw.AutoAdjust
	}
	if meta.IsDefined("verbose") {
		c.Verbose = raw.Verbose
	}
	if meta.IsDefined("port") {
		c.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		c.Baud = raw.Baud
	}
	if meta.IsDefined("spjs") {
		c.SPJS = strings.TrimSpace(raw.SPJS)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		c.Timeout = d
	}
	if meta.IsDefined("simulate") {
		c.Simulate = strings.TrimSpace(raw.Simulate)
	}
	if meta.IsDefined("events") {
		c.Events = strings.TrimSpace(raw.Events)
	}

	return nil
}

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "GPROBE_"

// LoadEnv overlays GPROBE_* environment variables. Variables from envFile
// are loaded first without overriding the real environment; a missing
// envFile is ignored.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	e := envReader{}
	e.getString("JOB", &c.Job)
	e.getFloat("WIDTH", &c.Width)
	e.getFloat("LENGTH", &c.Length)
	e.getFloat("DIAMETER", &c.Diameter)
	e.getFloat("TOOL_DIAMETER", &c.ToolDiameter)
	e.getFloat("SAFE_Z", &c.SafeZ)
	e.getFloat("FEED_RATE", &c.FeedRate)
	e.getInt("POINTS", &c.Points)
	e.getBool("DRY_RUN", &c.DryRun)
	e.getBool("AUTO_ADJUST", &c.AutoAdjust)
	e.getBool("VERBOSE", &c.Verbose)
	e.getString("PORT", &c.Port)
	e.getInt("BAUD", &c.Baud)
	e.getString("SPJS", &c.SPJS)
	e.getDuration("TIMEOUT", &c.Timeout)
	e.getString("SIMULATE", &c.Simulate)
	e.getString("EVENTS", &c.Events)
	return e.err
}

// envReader keeps the first parse error so callers can check once.
type envReader struct{ err error }

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := os.LookupEnv(EnvPrefix + key)
	return strings.TrimSpace(v), ok
}

func (e *envReader) fail(key string, err error) {
	e.err = fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
}

func (e *envReader) getString(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) getFloat(key string, dst *float64) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = f
}

func (e *envReader) getInt(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = n
}

func (e *envReader) getBool(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = b
}

func (e *envReader) getDuration(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = d
}

// Load builds the run configuration from args (without the program name).
// Later sources win: defaults, then the -config TOML file, then the
// environment (and envFile), then flags given explicitly on the command line.
func Load(args []string, envFile string, output io.Writer) (*Config, error) {
	fl := Default()
	var path string

	flags := flag.NewFlagSet("gprobe", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&path, "config", "", "TOML config file")
	flags.StringVar(&fl.Job, "j", fl.Job, "job: "+strings.Join(machine.Jobs, ", "))
	flags.Float64Var(&fl.Width, "w", fl.Width, "expected width (mm)")
	flags.Float64Var(&fl.Length, "l", fl.Length, "expected length (mm)")
	flags.Float64Var(&fl.Diameter, "d", fl.Diameter, "hole or scan diameter (mm)")
	flags.Float64Var(&fl.ToolDiameter, "t", fl.ToolDiameter, "tool diameter (mm)")
	flags.Float64Var(&fl.SafeZ, "z", fl.SafeZ, "safe Z lift (mm)")
	flags.Float64Var(&fl.FeedRate, "f", fl.FeedRate, "probe feed rate (mm/min)")
	flags.IntVar(&fl.Points, "n", fl.Points, "spiral scan points")
	flags.BoolVar(&fl.Verbose, "v", fl.Verbose, "log every line sent and received")
	flags.BoolVar(&fl.DryRun, "x", fl.DryRun, "dry run, do not wait for replies")
	flags.BoolVar(&fl.AutoAdjust, "a", fl.AutoAdjust, "apply the align correction")
	flags.StringVar(&fl.Port, "port", fl.Port, "serial device, SPJS port name, or - for stdin/stdout")
	flags.IntVar(&fl.Baud, "baud", fl.Baud, "serial baud rate")
	flags.StringVar(&fl.SPJS, "spjs", fl.SPJS, "Serial Port JSON Server websocket URL")
	flags.DurationVar(&fl.Timeout, "timeout", fl.Timeout, "controller read timeout, 0 to wait forever")
	flags.StringVar(&fl.Simulate, "simulate", fl.Simulate, "simulate a workpiece instead of hardware: box, bore, plane, fence")
	flags.StringVar(&fl.Events, "events", fl.Events, "serve session events (SSE) on this address")

	err := flags.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", flags.Arg(0))
	}

	cfg := Default()
	if path != "" {
		err = cfg.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}
	err = cfg.LoadEnv(envFile)
	if err != nil {
		return nil, err
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "j":
			cfg.Job = fl.Job
		case "w":
			cfg.Width = fl.Width
		case "l":
			cfg.Length = fl.Length
		case "d":
			cfg.Diameter = fl.Diameter
		case "t":
			cfg.ToolDiameter = fl.ToolDiameter
		case "z":
			cfg.SafeZ = fl.SafeZ
		case "f":
			cfg.FeedRate = fl.FeedRate
		case "n":
			cfg.Points = fl.Points
		case "v":
			cfg.Verbose = fl.Verbose
		case "x":
			cfg.DryRun = fl.DryRun
		case "a":
			cfg.AutoAdjust = fl.AutoAdjust
		case "port":
			cfg.Port = fl.Port
		case "baud":
			cfg.Baud = fl.Baud
		case "spjs":
			cfg.SPJS = fl.SPJS
		case "timeout":
			cfg.Timeout = fl.Timeout
		case "simulate":
			cfg.Simulate = fl.Simulate
		case "events":
			cfg.Events = fl.Events
		}
	})

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
