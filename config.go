package schedkit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Duration is a time.Duration read from Go duration strings ("250ms").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", node.Line, err)
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, raw, err)
	}
	if v < 0 {
		return fmt.Errorf("line %d: duration must be >= 0", node.Line)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the file form of every component's settings. Zero values
// fall back to the component defaults.
type Config struct {
	Pool struct {
		Workers        int      `yaml:"workers"`
		PinWorkers     bool     `yaml:"pin_workers"`
		RespawnTries   int      `yaml:"respawn_attempts"`
		RespawnInitial Duration `yaml:"respawn_initial"`
		RespawnMax     Duration `yaml:"respawn_max"`
	} `yaml:"pool"`

	Queue struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"queue"`

	Idle struct {
		Timeout Duration `yaml:"timeout"`
		Delay   Duration `yaml:"delay"`
		Poll    Duration `yaml:"poll"`
	} `yaml:"idle"`

	Frame struct {
		Interval  Duration `yaml:"interval"`
		TargetFPS int      `yaml:"target_fps"`
	} `yaml:"frame"`

	Coalescer struct {
		Delay Duration `yaml:"delay"`
	} `yaml:"coalescer"`

	Batcher struct {
		Delay Duration `yaml:"delay"`
	} `yaml:"batcher"`

	Limiter struct {
		Window      Duration `yaml:"window"`
		MaxRequests int      `yaml:"max_requests"`
	} `yaml:"limiter"`
}

// ParseConfig decodes YAML, rejecting unknown fields.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("schedkit: parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("schedkit: read config: %w", err)
	}
	return ParseConfig(data)
}

func (c Config) PoolOptions(base Options) PoolOptions {
	o := PoolOptions{
		Options:    base,
		Workers:    c.Pool.Workers,
		PinWorkers: c.Pool.PinWorkers,
		Respawn: RespawnPolicy{
			Attempts: c.Pool.RespawnTries,
			Initial:  c.Pool.RespawnInitial.Std(),
			Max:      c.Pool.RespawnMax.Std(),
		},
	}
	o.FillDefaults()
	return o
}

func (c Config) QueueOptions(base Options) QueueOptions {
	o := QueueOptions{Options: base, Concurrency: c.Queue.Concurrency}
	o.FillDefaults()
	return o
}

// IdleOptions uses a DeferredIdle source; callers with a load probe
// replace Source with a ProbeIdle built from IdlePoll.
func (c Config) IdleOptions(base Options) IdleOptions {
	o := IdleOptions{
		Options:        base,
		Source:         DeferredIdle{Delay: c.Idle.Delay.Std()},
		DefaultTimeout: c.Idle.Timeout.Std(),
	}
	o.FillDefaults()
	return o
}

func (c Config) IdlePoll() time.Duration {
	if c.Idle.Poll <= 0 {
		return DefaultIdlePoll
	}
	return c.Idle.Poll.Std()
}

func (c Config) FrameOptions(base Options) FrameOptions {
	o := FrameOptions{
		Options: base,
		Source:  TimerFrames{Interval: c.Frame.Interval.Std()},
	}
	o.FillDefaults()
	return o
}

func (c Config) TargetFPS() int {
	if c.Frame.TargetFPS <= 0 {
		return DefaultTargetFPS
	}
	return c.Frame.TargetFPS
}

func (c Config) CoalescerOptions(base Options) CoalescerOptions {
	o := CoalescerOptions{Options: base, DefaultDelay: c.Coalescer.Delay.Std()}
	o.FillDefaults()
	return o
}

func (c Config) BatcherOptions(base Options) BatcherOptions {
	o := BatcherOptions{Options: base, Delay: c.Batcher.Delay.Std()}
	o.FillDefaults()
	return o
}

func (c Config) LimiterOptions() LimiterOptions {
	o := LimiterOptions{Window: c.Limiter.Window.Std(), MaxRequests: c.Limiter.MaxRequests}
	o.FillDefaults()
	return o
}
