package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"muzzman/internal/resolve"
)

// progressPrinter writes observe snapshots. On a terminal each snapshot
// overwrites the previous line; otherwise only changes are printed, one
// per line.
type progressPrinter struct {
	out    io.Writer
	inline bool
	last   string
	wrote  bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, inline: isTerminal(out)}
}

func (p *progressPrinter) print(snap resolve.Snapshot) {
	line := fmt.Sprintf("Progress: %s, Status: %s", formatProgress(snap.Progress), orDash(snap.Status))
	if p.inline {
		fmt.Fprintf(p.out, "\r\033[K%s", line)
		p.wrote = true
		return
	}
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.out, line)
}

func (p *progressPrinter) finish() {
	if p.inline && p.wrote {
		fmt.Fprintln(p.out)
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
