package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mgutz/ansi"
	"github.com/olekukonko/tablewriter"

	"github.com/Jon-Bright/rgpio/reg"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// writeRegs prints a feature's registers from their shadows. Registers that
// bulk transfers skip, and write-only ones, show no value.
func writeRegs(w io.Writer, regs []reg.Named, color bool) {
	table := newTable(w, "Register", "Offset", "Value", "Fields")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})
	for _, n := range regs {
		off := fmt.Sprintf("+0x%03x", n.Reg.Addr()*4)
		if n.NoBulk || n.Access == reg.WO {
			table.Append([]string{n.Name, off, "-", ""})
			continue
		}
		table.Append([]string{n.Name, off, fmt.Sprintf("%08x", n.Reg.Get()), fieldString(n, color)})
	}
	table.Render()
}

func fieldString(n reg.Named, color bool) string {
	var reset reg.Register
	reset.Put(n.Reset)
	var parts []string
	for _, f := range n.Fields {
		if f.Access == reg.WO {
			continue
		}
		v := f.Get(n.Reg)
		s := fmt.Sprintf("%s=%#x", f.Name, v)
		if color && v != f.Get(&reset) {
			s = ansi.Color(s, "yellow+b")
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
