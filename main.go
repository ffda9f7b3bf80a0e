// Command rgpio inspects and changes Raspberry Pi peripheral registers.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/Jon-Bright/rgpio/rpi"
)

const CONFIG_ENV = "RGPIO_CONFIG"

type tool struct {
	descr string
	main  func(e *env, args []string) error
}

var tools = map[string]tool{
	"info": {"show the detected platform", infoMain},
	"list": {"list the register features", listMain},
	"dump": {"show a feature's registers and fields", dumpMain},
	"set":  {"change a feature's fields and write them to hardware", setMain},
	"raw":  {"read or write one register by documentation address", rawMain},
	"pin":  {"configure, drive or wait on a GPIO", pinMain},
}

func printToolList(w io.Writer) {
	names := make([]string, 0, len(tools))
	maxLen := 0
	for k := range tools {
		names = append(names, k)
		if maxLen < len(k) {
			maxLen = len(k)
		}
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Usage:\n  rgpio [FLAGS] COMMAND [ARGUMENTS]\n\n")
	fmt.Fprintf(w, "Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %*s  %s\n", maxLen, name, tools[name].descr)
	}
	fmt.Fprintf(w, "\nFlags:\n")
}

// env is what every command works with.
type env struct {
	plat  rpi.Platform
	m     rpi.Mapper
	am    *rpi.AddrMap
	log   *zap.Logger
	color bool
	out   io.Writer
	errw  io.Writer
}

func openEnv(cfg Config, log *zap.Logger, out, errw io.Writer) (*env, error) {
	e := &env{log: log, color: cfg.Color, out: out, errw: errw}
	if cfg.Sim != "" {
		soc, err := rpi.ParseSoc(cfg.Sim)
		if err != nil {
			return nil, err
		}
		e.plat = rpi.SimPlatform(soc)
		e.am = rpi.NewSimAddrMap(e.plat, rpi.WithLogger(log))
	} else {
		plat, err := rpi.Detect()
		if err != nil {
			return nil, err
		}
		e.plat = plat
		e.am, err = rpi.NewAddrMap(plat, rpi.WithDevice(cfg.Device), rpi.WithLogger(log))
		if err != nil {
			return nil, err
		}
	}
	e.m = e.am
	log.Debug("platform", zap.Stringer("platform", e.plat), zap.Bool("simulated", e.am.Simulated()))
	return e, nil
}

func (e *env) close() error {
	return e.am.Close()
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rgpio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", os.Getenv(CONFIG_ENV), "YAML file with default settings (keys device, sim, verbose, color)")
	fs.String("dev", rpi.MEM_FILE, "The memory device to map registers through: /dev/mem or /dev/gpiomem")
	fs.String("sim", "", "Simulate the named platform (rpi0..rpi5) in process memory instead of using hardware")
	fs.Bool("v", false, "Log what's being mapped and done")
	fs.Bool("color", false, "Highlight fields that differ from their reset values")
	fs.Usage = func() {
		printToolList(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "rgpio: %v\n", err)
		return 1
	}
	cfg.applyFlags(fs)

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)
	t, ok := tools[name]
	if !ok {
		fmt.Fprintf(stderr, "rgpio: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	log := newLogger(cfg.Verbose)
	defer log.Sync() // Ignore error
	e, err := openEnv(cfg, log, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "rgpio: %v\n", err)
		return 1
	}
	err = t.main(e, fs.Args()[1:])
	if cerr := e.close(); cerr != nil {
		log.Warn("close failed", zap.Error(cerr))
	}
	if err != nil {
		fmt.Fprintf(stderr, "rgpio %s: %v\n", name, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
