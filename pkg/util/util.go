package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/token"
	"golang.org/x/term"
)

// SourceFileRecord tracks the name and content of a single source file and
// the global offset of its first rune.
type SourceFileRecord struct {
	Name    string
	Content []rune
	Base    int
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Report is one emitted diagnostic.
type Report struct {
	Severity   Severity
	Loc        token.Location
	Diagnostic Diagnostic
	Warning    config.Warning
}

// Reporter accumulates diagnostics for one compilation and prints them as
// they arrive. It never terminates the process.
type Reporter struct {
	cfg     *config.Config
	out     io.Writer
	color   bool
	files   []SourceFileRecord
	reports []Report
	errors  int
}

// NewReporter prints to out, coloring the output when out is a terminal.
// A nil out only records reports.
func NewReporter(cfg *config.Config, out io.Writer) *Reporter {
	r := &Reporter{cfg: cfg, out: out}
	if f, ok := out.(*os.File); ok {
		r.color = term.IsTerminal(int(f.Fd()))
	}
	return r
}

// AddSourceFile registers a file and returns the global offset of its
// first rune.
func (r *Reporter) AddSourceFile(name string, content []rune) int {
	base := 0
	if n := len(r.files); n > 0 {
		last := r.files[n-1]
		base = last.Base + len(last.Content) + 1
	}
	r.files = append(r.files, SourceFileRecord{Name: name, Content: content, Base: base})
	return base
}

func (r *Reporter) SourceFiles() []SourceFileRecord { return r.files }

func (r *Reporter) Error(loc token.Location, d Diagnostic) {
	r.errors++
	r.reports = append(r.reports, Report{Severity: SeverityError, Loc: loc, Diagnostic: d})
	r.print(loc, "error", "\033[31m", Message(d, r.lang()), "")
}

// Warn reports d if warning wt is enabled.
func (r *Reporter) Warn(wt config.Warning, loc token.Location, d Diagnostic) {
	if r.cfg != nil && !r.cfg.IsWarningEnabled(wt) {
		return
	}
	r.reports = append(r.reports, Report{Severity: SeverityWarning, Loc: loc, Diagnostic: d, Warning: wt})
	suffix := ""
	if r.cfg != nil {
		suffix = fmt.Sprintf(" [-W%s]", r.cfg.Warnings[wt].Name)
	}
	r.print(loc, "warning", "\033[33m", Message(d, r.lang()), suffix)
}

func (r *Reporter) HadError() bool    { return r.errors > 0 }
func (r *Reporter) ErrorCount() int   { return r.errors }
func (r *Reporter) Reports() []Report { return r.reports }

// Codes lists the codes of all reports in emission order.
func (r *Reporter) Codes() []Code {
	codes := make([]Code, len(r.reports))
	for i, rep := range r.reports {
		codes[i] = rep.Diagnostic.Code()
	}
	return codes
}

func (r *Reporter) lang() string {
	if r.cfg == nil {
		return "ru"
	}
	return r.cfg.Lang
}

// Position converts a global offset to a file name and 1-based line and
// column.
func (r *Reporter) Position(offset int) (filename string, line, col int) {
	file := r.fileAt(offset)
	if file == nil {
		return "unknown", 0, 0
	}
	line, col = 1, 1
	for _, ch := range file.Content[:min(offset-file.Base, len(file.Content))] {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return file.Name, line, col
}

func (r *Reporter) fileAt(offset int) *SourceFileRecord {
	for i := len(r.files) - 1; i >= 0; i-- {
		if offset >= r.files[i].Base {
			return &r.files[i]
		}
	}
	return nil
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + "\033[0m"
}

func (r *Reporter) print(loc token.Location, severity, colorCode, msg, suffix string) {
	if r.out == nil {
		return
	}
	filename, line, col := r.Position(loc.Begin)
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s%s\n", filename, line, col, r.paint(colorCode, severity+":"), msg, suffix)
	r.printErrorLine(loc)
}

// printErrorLine prints the source line and a caret under the location.
func (r *Reporter) printErrorLine(loc token.Location) {
	file := r.fileAt(loc.Begin)
	if file == nil {
		return
	}
	content := file.Content
	pos := min(loc.Begin-file.Base, len(content))

	lineStart := pos
	for lineStart > 0 && content[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := pos
	for lineEnd < len(content) && content[lineEnd] != '\n' {
		lineEnd++
	}

	length := loc.End - loc.Begin
	if length < 1 {
		length = 1
	}
	if pos+length > lineEnd {
		length = max(lineEnd-pos, 1)
	}

	fmt.Fprintf(r.out, "  %s\n", string(content[lineStart:lineEnd]))
	caret := "^" + strings.Repeat("~", length-1)
	fmt.Fprintf(r.out, "  %s%s\n", strings.Repeat(" ", pos-lineStart), r.paint("\033[32m", caret))
}
