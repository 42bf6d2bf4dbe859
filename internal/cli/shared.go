package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/teamcutter/linebrew/internal/domain"
	"github.com/teamcutter/linebrew/internal/logging"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue, color.Bold).SprintFunc()
)

func withSpinner(ctx context.Context, desc string) (stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				spinner.Finish()
				return
			default:
				spinner.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		spinner.Finish()
	}
}

func colorize(tag domain.Tag, text string) string {
	switch tag {
	case domain.TagStep:
		return blue(text)
	case domain.TagError:
		return red(text)
	case domain.TagWarning:
		return yellow(text)
	case domain.TagSuccess:
		return green(text)
	default:
		return text
	}
}

func statusLabel(r domain.FormulaRecord) string {
	switch r.Status() {
	case domain.StatusPinned:
		return cyan("pinned")
	case domain.StatusOutdated:
		return yellow("outdated")
	case domain.StatusInstalled:
		return green("installed")
	default:
		return ""
	}
}

func printRecord(out io.Writer, r domain.FormulaRecord) {
	line := fmt.Sprintf(" %s", bold(r.Name))
	if r.InstalledVersion != "" {
		line += bold("-" + r.InstalledVersion)
	}
	if r.Outdated() {
		line += fmt.Sprintf("  %s", yellow("↑ "+r.LatestVersion))
	}
	if label := statusLabel(r); label != "" {
		line += "  " + dim("(") + label + dim(")")
	}
	if r.Leaf {
		line += " " + dim("leaf")
	}
	fmt.Fprintln(out, line)
}

func printDetail(out io.Writer, r *domain.FormulaRecord) {
	fmt.Fprintf(out, "%s %s\n", green("●"), bold(r.Name))
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(out, "  %s %s\n", cyan(name+":"), value)
		}
	}
	field("version", r.LatestVersion)
	field("installed", r.InstalledVersion)
	field("status", statusLabel(*r))
	field("desc", r.Description)
	field("url", dim(r.Homepage))
	field("license", r.License)
	field("tap", r.Tap)
	if len(r.Dependencies) > 0 {
		field("deps", strings.Join(r.Dependencies, ", "))
	}
	if r.Caveats != "" {
		fmt.Fprintf(out, "  %s\n", cyan("caveats:"))
		for _, l := range strings.Split(r.Caveats, "\n") {
			fmt.Fprintf(out, "    %s\n", l)
		}
	}
}

func printWarnings(out io.Writer, warnings []domain.ParseWarning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(out, "%s %d unreadable entries skipped (run with -v for details)\n", dim("○"), len(warnings))
}

// cliLog is resolved per call because each command reconfigures the global
// logger before it runs.
func cliLog() *zerolog.Logger {
	l := logging.GetLogger("cli")
	return &l
}

func logWarn(format string, args ...any) {
	cliLog().Warn().Msgf(format, args...)
}
