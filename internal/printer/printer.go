// Package printer writes human-facing command output: status lines on
// stderr and rendered boards, task cards, and dashboards on stdout.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/tally/internal/core/styles"
)

type ctxKey struct{}

// Printer formats status messages for the terminal.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a printer writing results to out and status lines to err.
func New(out, err io.Writer) *Printer {
	return &Printer{out: out, err: err}
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one bound to stdout and stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

// Out returns the result writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, fmt.Sprintf(format, args...))
}

func (p *Printer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.SuccessStyle.Render("✔ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.OverdueStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.ErrorStyle.Render("✖ "+fmt.Sprintf(format, args...)))
}

// Println writes a rendered block to the result writer.
func (p *Printer) Println(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}
