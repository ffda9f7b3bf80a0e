package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/Jon-Bright/rgpio/rpi"
)

// Config holds the settings that can come from a file. Flags given on the
// command line win.
type Config struct {
	Device  string `yaml:"device"`
	Sim     string `yaml:"sim"`
	Verbose bool   `yaml:"verbose"`
	Color   bool   `yaml:"color"`
}

func defaultConfig() Config {
	return Config{Device: rpi.MEM_FILE}
}

// loadConfig reads name over the defaults. An empty name means no file.
func loadConfig(name string) (Config, error) {
	c := defaultConfig()
	if name == "" {
		return c, nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return c, xerrors.Errorf("couldn't read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, xerrors.Errorf("couldn't parse config %s: %w", name, err)
	}
	return c, nil
}

// applyFlags copies the flags that were actually given into c.
func (c *Config) applyFlags(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		g, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		switch f.Name {
		case "dev":
			c.Device = g.Get().(string)
		case "sim":
			c.Sim = g.Get().(string)
		case "v":
			c.Verbose = g.Get().(bool)
		case "color":
			c.Color = g.Get().(bool)
		}
	})
}
