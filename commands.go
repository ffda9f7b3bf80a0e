package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/Jon-Bright/rgpio/reg"
	"github.com/Jon-Bright/rgpio/rpi"
)

func newFlagSet(e *env, name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.errw)
	fs.Usage = func() {
		fmt.Fprintf(e.errw, "Usage:\n  rgpio %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

func infoMain(e *env, args []string) error {
	fs := newFlagSet(e, "info", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mem := "simulated"
	if !e.am.Simulated() {
		mem = "mapped"
	}
	fmt.Fprintf(e.out, "Platform: %v\n", e.plat)
	fmt.Fprintf(e.out, "SoC:      %v (%s)\n", e.plat.Soc, e.plat.Soc.Board())
	fmt.Fprintf(e.out, "Revision: %06x\n", e.plat.Revision)
	fmt.Fprintf(e.out, "Memory:   %s\n", mem)
	return nil
}

func listMain(e *env, args []string) error {
	fs := newFlagSet(e, "list", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	table := newTable(e.out, "Feature", "Units", "Description")
	for _, name := range rpi.FeatureNames() {
		fi := rpi.Features[name]
		table.Append([]string{fi.Name, fi.Units, fi.Descr})
	}
	table.Render()
	return nil
}

// featureArgs parses "FEATURE [-n N] ..." where the feature name comes first.
func featureArgs(fs *flag.FlagSet, args []string) (string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fs.Usage()
		return "", xerrors.New("no feature given")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return "", err
	}
	return args[0], nil
}

func newFeature(e *env, name string, unit int) (rpi.Feature, error) {
	fi, ok := rpi.Features[name]
	if !ok {
		return nil, xerrors.Errorf("unknown feature %q, want one of %s", name, strings.Join(rpi.FeatureNames(), ", "))
	}
	f, err := fi.New(e.m, unit)
	if err != nil {
		return nil, err
	}
	e.log.Debug("feature", zap.String("name", name), zap.Int("unit", unit))
	return f, nil
}

func dumpMain(e *env, args []string) error {
	fs := newFlagSet(e, "dump", "FEATURE [-n UNIT]")
	unit := fs.Int("n", 0, "The unit, bank or clock number")
	name, err := featureArgs(fs, args)
	if err != nil {
		return err
	}
	f, err := newFeature(e, name, *unit)
	if err != nil {
		return err
	}
	f.GrabRegs()
	writeRegs(e.out, f.Regs(), e.color)
	return nil
}

// assignment is one "Reg.Field=V" or "Reg=V" argument.
type assignment struct {
	Reg   string
	Field string
	V     uint32
}

func parseAssign(s string) (assignment, error) {
	lhs, val, ok := strings.Cut(s, "=")
	if !ok || lhs == "" {
		return assignment{}, xerrors.Errorf("%q isn't Reg.Field=VALUE", s)
	}
	v, err := strconv.ParseUint(val, 0, 32)
	if err != nil {
		return assignment{}, xerrors.Errorf("bad value in %q: %w", s, err)
	}
	a := assignment{V: uint32(v)}
	a.Reg, a.Field, _ = strings.Cut(lhs, ".")
	return a, nil
}

func findReg(regs []reg.Named, name string) (reg.Named, bool) {
	for _, n := range regs {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return reg.Named{}, false
}

// apply puts a into the shadow of the matching register.
func apply(regs []reg.Named, a assignment) (reg.Named, error) {
	n, ok := findReg(regs, a.Reg)
	if !ok {
		return n, xerrors.Errorf("no register %s", a.Reg)
	}
	if n.Access == reg.RO {
		return n, xerrors.Errorf("register %s is read-only", n.Name)
	}
	if a.Field == "" {
		n.Reg.Put(a.V)
		return n, nil
	}
	f, ok := n.Field(a.Field)
	if !ok {
		return n, xerrors.Errorf("register %s has no field %s", n.Name, a.Field)
	}
	if f.Access == reg.RO {
		return n, xerrors.Errorf("field %s.%s is read-only", n.Name, f.Name)
	}
	return n, f.Put(n.Reg, a.V)
}

func setMain(e *env, args []string) error {
	fs := newFlagSet(e, "set", "FEATURE [-n UNIT] [-reset] Reg.Field=VALUE ...")
	unit := fs.Int("n", 0, "The unit, bank or clock number")
	reset := fs.Bool("reset", false, "Start from the reset values instead of the current hardware values")
	name, err := featureArgs(fs, args)
	if err != nil {
		return err
	}
	var as []assignment
	for _, s := range fs.Args() {
		a, err := parseAssign(s)
		if err != nil {
			return err
		}
		as = append(as, a)
	}
	f, err := newFeature(e, name, *unit)
	if err != nil {
		return err
	}
	if *reset {
		f.InitPutReset()
	} else {
		f.GrabRegs()
	}
	regs := f.Regs()
	var strobes []reg.Named
	for _, a := range as {
		n, err := apply(regs, a)
		if err != nil {
			return err
		}
		if n.NoBulk {
			strobes = append(strobes, n)
		}
	}

	if ap, ok := f.(rpi.Applier); ok {
		applied := ap.ApplyRegs()
		if c, isClock := f.(*rpi.Clock); isClock {
			e.log.Debug("clock applied", zap.Bool("ok", applied), zap.Int("busyPolls", c.BusyCount))
		}
		if !applied {
			return xerrors.Errorf("%s %d stayed busy, nothing applied", name, *unit)
		}
	} else {
		f.PushRegs()
	}
	for _, n := range strobes {
		n.Reg.Push()
	}
	f.GrabRegs()
	writeRegs(e.out, regs, e.color)
	return nil
}

func rawMain(e *env, args []string) error {
	fs := newFlagSet(e, "raw", "[-op read|write|peek|set|clr|flip] ADDRESS [VALUE]")
	op := fs.String("op", "read", "read, write, or (RPi5) peek, set, clr, flip through the atomic aliases")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return xerrors.New("no address given")
	}
	a, err := strconv.ParseUint(fs.Arg(0), 0, 32)
	if err != nil {
		return xerrors.Errorf("bad address: %w", err)
	}
	addr := uint32(a)
	var val uint32
	switch *op {
	case "read", "peek":
		if fs.NArg() != 1 {
			return xerrors.Errorf("-op %s takes no value", *op)
		}
	case "write", "set", "clr", "flip":
		if fs.NArg() != 2 {
			return xerrors.Errorf("-op %s needs a value", *op)
		}
		v, err := strconv.ParseUint(fs.Arg(1), 0, 32)
		if err != nil {
			return xerrors.Errorf("bad value: %w", err)
		}
		val = uint32(v)
	default:
		return xerrors.Errorf("unknown -op %q", *op)
	}

	words := uint32(1)
	if *op != "read" && *op != "write" {
		if err := e.plat.RequireRPi5(); err != nil {
			return err
		}
		words = reg.ClrOffset + 1
	}
	w, err := e.m.MemBlock(addr, words)
	if err != nil {
		return err
	}
	var r reg.Atomic
	if err := r.InitAddr(w, 0); err != nil {
		return err
	}
	e.log.Debug("raw", zap.String("op", *op), zap.Uint32("addr", addr), zap.Uint32("value", val))
	switch *op {
	case "read":
		fmt.Fprintf(e.out, "0x%08x: 0x%08x\n", addr, r.Read())
	case "peek":
		fmt.Fprintf(e.out, "0x%08x: 0x%08x\n", addr, r.ReadPeek())
	case "write":
		r.Write(val)
	case "set":
		r.WriteSet(val)
	case "clr":
		r.WriteClr(val)
	case "flip":
		r.WriteFlip(val)
	}
	return nil
}
