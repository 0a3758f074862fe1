// Package diagnostic renders an uncaught VM error as the formatted
// multi-line block spec §6.4 describes: a header, an optional trace,
// a quoted source line, an info list, and a tips list. Under the
// Release and Minified profiles only the header and info are printed,
// matching the same profile gating internal/codec applies to archive
// fidelity.
package diagnostic

import (
	"fmt"
	"strings"

	"ravm/internal/codec"
	rvmerrors "ravm/internal/errors"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
	ansiReset  = "\x1b[0m"
)

// Render formats err as the diagnostic block. trace is the engine's
// live call/scope trace (internal/engine.Engine.Trace) captured at the
// point the error reached the top uncaught; it is printed only when the
// error itself carries no trace.
// useColor selects ANSI coloring, decided once by the caller from
// github.com/mattn/go-isatty (spec §6.4: colorization belongs to the
// CLI front-end, not the core).
func Render(err error, profile codec.Profile, trace []string, useColor bool) string {
	rv := rvmerrors.Normalize(err)

	var sb strings.Builder
	writeHeader(&sb, rv, useColor)

	if profile == codec.Release || profile == codec.Minified {
		writeInfo(&sb, rv)
		return sb.String()
	}

	writeTrace(&sb, rv, trace, useColor)
	writeSource(&sb, rv, useColor)
	writeInfo(&sb, rv)
	writeTips(&sb, rv, useColor)
	return sb.String()
}

func writeHeader(sb *strings.Builder, rv *rvmerrors.RVMError, useColor bool) {
	header := string(rv.Kind)
	if rv.Position != "" {
		header = fmt.Sprintf("%s at %s", header, rv.Position)
	}
	if useColor {
		fmt.Fprintf(sb, "%s%s%s\n", ansiRed, header, ansiReset)
		return
	}
	fmt.Fprintf(sb, "%s\n", header)
}

func writeTrace(sb *strings.Builder, rv *rvmerrors.RVMError, engineTrace []string, useColor bool) {
	frames := rv.Trace
	if len(frames) == 0 {
		frames = engineTrace
	}
	if len(frames) == 0 {
		return
	}
	sb.WriteString("trace:\n")
	for _, frame := range frames {
		line := fmt.Sprintf("  at %s\n", frame)
		if useColor {
			line = ansiDim + strings.TrimSuffix(line, "\n") + ansiReset + "\n"
		}
		sb.WriteString(line)
	}
}

func writeSource(sb *strings.Builder, rv *rvmerrors.RVMError, useColor bool) {
	if rv.Source == "" {
		return
	}
	if useColor {
		fmt.Fprintf(sb, "  %s> %s%s\n", ansiDim, rv.Source, ansiReset)
		return
	}
	fmt.Fprintf(sb, "  > %s\n", rv.Source)
}

func writeInfo(sb *strings.Builder, rv *rvmerrors.RVMError) {
	for _, line := range rv.Info {
		fmt.Fprintf(sb, "  %s\n", line)
	}
}

func writeTips(sb *strings.Builder, rv *rvmerrors.RVMError, useColor bool) {
	if len(rv.Tips) == 0 {
		return
	}
	sb.WriteString("tips:\n")
	for _, tip := range rv.Tips {
		if useColor {
			fmt.Fprintf(sb, "  %s- %s%s\n", ansiYellow, tip, ansiReset)
			continue
		}
		fmt.Fprintf(sb, "  - %s\n", tip)
	}
}
