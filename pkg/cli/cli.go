// Package cli parses GNU-style command lines for the compiler driver. It
// understands long options (--output file, --output=file), single-dash long
// options (-std=ruc, -Wall), short clusters (-dv) and the -W/-F flag groups,
// and renders a help page wrapped to the terminal width.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
}

// switchLike values are set by their presence alone; an explicit =value is
// still accepted.
type switchLike interface{ switchLike() }

type scalar[T any] struct {
	p      *T
	parse  func(string) (T, error)
	format func(T) string
}

func (v *scalar[T]) Set(s string) error {
	x, err := v.parse(s)
	if err != nil {
		return err
	}
	*v.p = x
	return nil
}

func (v *scalar[T]) String() string { return v.format(*v.p) }

type boolValue struct{ p *bool }

func (v *boolValue) switchLike() {}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }
func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s'", s)
	}
	*v.p = b
	return nil
}

// countValue grows by one on each bare occurrence, so -v -v and -vv both
// give 2, while --verbose=3 sets it outright.
type countValue struct{ p *int }

func (v *countValue) switchLike() {}
func (v *countValue) String() string { return strconv.Itoa(*v.p) }
func (v *countValue) Set(s string) error {
	if s == "" {
		*v.p++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid count '%s'", s)
	}
	*v.p = n
	return nil
}

func isSwitch(v Value) bool {
	_, ok := v.(switchLike)
	return ok
}

type Flag struct {
	Name    string
	Short   string
	Usage   string
	Meta    string // placeholder shown for the argument, e.g. <file>
	Default string
	Value   Value
}

// FlagGroupEntry is one member of a -W/-F style group. Enabled is set by
// <prefix><name>, Disabled by <prefix>no-<name>.
type FlagGroupEntry struct {
	Name     string
	Prefix   string
	Usage    string
	Enabled  *bool
	Disabled *bool
	Default  bool
}

type FlagGroup struct {
	Title   string
	Kind    string
	Entries []FlagGroupEntry
}

type FlagSet struct {
	name    string
	byName  map[string]*Flag
	byShort map[string]*Flag
	order   []*Flag
	groups  []FlagGroup
	grouped map[string]bool
	args    []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:    name,
		byName:  make(map[string]*Flag),
		byShort: make(map[string]*Flag),
		grouped: make(map[string]bool),
	}
}

// Args returns the positional arguments left after Parse.
func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) Lookup(name string) *Flag { return f.byName[name] }

func (f *FlagSet) String(p *string, name, short, value, usage, meta string) {
	*p = value
	f.Var(&scalar[string]{p, func(s string) (string, error) { return s, nil }, func(s string) string { return s }},
		name, short, usage, value, meta)
}

func (f *FlagSet) Int(p *int, name, short string, value int, usage, meta string) {
	*p = value
	parse := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value '%s'", s)
		}
		return n, nil
	}
	f.Var(&scalar[int]{p, parse, strconv.Itoa}, name, short, usage, strconv.Itoa(value), meta)
}

func (f *FlagSet) Bool(p *bool, name, short string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, short, usage, strconv.FormatBool(value), "")
}

// Count registers a flag that counts its occurrences.
func (f *FlagSet) Count(p *int, name, short, usage string) {
	*p = 0
	f.Var(&countValue{p}, name, short, usage, "", "")
}

func (f *FlagSet) Var(value Value, name, short, usage, def, meta string) {
	if name == "" {
		panic("cli: flag name cannot be empty")
	}
	if _, dup := f.byName[name]; dup {
		panic("cli: flag redefined: " + name)
	}
	fl := &Flag{Name: name, Short: short, Usage: usage, Meta: meta, Default: def, Value: value}
	f.byName[name] = fl
	f.order = append(f.order, fl)
	if short == "" {
		return
	}
	if _, dup := f.byShort[short]; dup {
		panic("cli: shorthand redefined: " + short)
	}
	f.byShort[short] = fl
}

// AddFlagGroup registers <prefix><name> and <prefix>no-<name> for every
// entry and lists them in their own help section.
func (f *FlagSet) AddFlagGroup(title, kind string, entries []FlagGroupEntry) {
	for _, e := range entries {
		if e.Enabled != nil {
			f.Bool(e.Enabled, e.Prefix+e.Name, "", *e.Enabled, e.Usage)
			f.grouped[e.Prefix+e.Name] = true
		}
		if e.Disabled != nil {
			f.Bool(e.Disabled, e.Prefix+"no-"+e.Name, "", *e.Disabled, "Disable '"+e.Name+"'.")
			f.grouped[e.Prefix+"no-"+e.Name] = true
		}
	}
	f.groups = append(f.groups, FlagGroup{Title: title, Kind: kind, Entries: entries})
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = f.args[:0]
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		}
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}

		long := strings.HasPrefix(arg, "--")
		body := strings.TrimPrefix(arg[1:], "-")
		name, val, hasVal := strings.Cut(body, "=")
		if name == "" {
			return fmt.Errorf("empty flag name in '%s'", arg)
		}

		fl, ok := f.byName[name]
		if !ok && long {
			return fmt.Errorf("unknown flag: --%s", name)
		}
		if !ok {
			if err := f.parseShort(body, arguments, &i); err != nil {
				return err
			}
			continue
		}

		switch {
		case hasVal:
			if err := fl.Value.Set(val); err != nil {
				return fmt.Errorf("-%s: %w", name, err)
			}
		case isSwitch(fl.Value):
			fl.Value.Set("")
		default:
			if i+1 >= len(arguments) {
				return fmt.Errorf("flag needs an argument: %s", arg)
			}
			i++
			if err := fl.Value.Set(arguments[i]); err != nil {
				return fmt.Errorf("-%s: %w", name, err)
			}
		}
	}
	return nil
}

// parseShort handles -x, -xVALUE, -x VALUE and clusters of switches like -dv.
func (f *FlagSet) parseShort(body string, arguments []string, i *int) error {
	for pos, r := range body {
		short := string(r)
		fl, ok := f.byShort[short]
		if !ok {
			return fmt.Errorf("unknown shorthand flag: -%s", short)
		}
		if isSwitch(fl.Value) {
			fl.Value.Set("")
			continue
		}
		value := strings.TrimPrefix(body[pos+len(short):], "=")
		if value == "" {
			if *i+1 >= len(arguments) {
				return fmt.Errorf("flag needs an argument: -%s", short)
			}
			*i++
			value = arguments[*i]
		}
		return fl.Value.Set(value)
	}
	return nil
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	FlagSet     *FlagSet
	Action      func(args []string) error
	Stdout      io.Writer
	Stderr      io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func (a *App) Run(arguments []string) error {
	var help bool
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information.")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintf(a.Stderr, "%s: %v\n", a.Name, err)
		fmt.Fprintf(a.Stderr, "Usage: %s %s\nRun '%s --help' for all available options.\n", a.Name, a.synopsis(), a.Name)
		return err
	}
	if help {
		a.WriteHelp(a.Stdout, terminalWidth())
		return nil
	}
	if a.Action == nil {
		return nil
	}
	return a.Action(a.FlagSet.Args())
}

func (a *App) synopsis() string {
	if a.Synopsis == "" {
		return "[options] [input] ..."
	}
	return a.Synopsis
}

// helpRow is one line of the help page before layout.
type helpRow struct{ left, usage, note string }

// WriteHelp renders the help page for a terminal of the given width.
func (a *App) WriteHelp(w io.Writer, width int) {
	fs := a.FlagSet
	var options []helpRow
	flags := make([]*Flag, 0, len(fs.order))
	for _, fl := range fs.order {
		if !fs.grouped[fl.Name] {
			flags = append(flags, fl)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	for _, fl := range flags {
		options = append(options, helpRow{flagSpelling(fl), fl.Usage, defaultNote(fl)})
	}

	sections := make([][]helpRow, len(fs.groups))
	for gi, g := range fs.groups {
		prefix := "-"
		if len(g.Entries) > 0 {
			prefix += g.Entries[0].Prefix
		}
		rows := []helpRow{
			{prefix + "<" + g.Kind + ">", "Enable a specific " + g.Kind + ".", ""},
			{prefix + "no-<" + g.Kind + ">", "Disable a specific " + g.Kind + ".", ""},
		}
		entries := append([]FlagGroupEntry(nil), g.Entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			state := "[off]"
			if e.Default {
				state = "[on]"
			}
			rows = append(rows, helpRow{"  " + e.Name, e.Usage, state})
		}
		sections[gi] = rows
	}

	leftWidth := 0
	for _, rows := range append([][]helpRow{options}, sections...) {
		for _, r := range rows {
			leftWidth = max(leftWidth, len(r.left))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.synopsis())
	if a.Description != "" {
		sb.WriteString("\n")
		for _, line := range wrapText(a.Description, width-2) {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	if len(options) > 0 {
		sb.WriteString("\nOptions:\n")
		writeRows(&sb, options, leftWidth, width)
	}
	for gi, g := range fs.groups {
		fmt.Fprintf(&sb, "\n%s:\n", g.Title)
		writeRows(&sb, sections[gi], leftWidth, width)
	}
	if len(a.Authors) > 0 || a.Repository != "" {
		sb.WriteString("\n")
		if len(a.Authors) > 0 {
			fmt.Fprintf(&sb, "Written by %s and contributors.\n", strings.Join(a.Authors, ", "))
		}
		if a.Repository != "" {
			fmt.Fprintf(&sb, "Report bugs at %s\n", a.Repository)
		}
	}
	io.WriteString(w, sb.String())
}

func writeRows(sb *strings.Builder, rows []helpRow, leftWidth, width int) {
	const gap = 2
	usageWidth := max(width-2-leftWidth-gap, 20)
	pad := strings.Repeat(" ", 2+leftWidth+gap)
	for _, r := range rows {
		usage := r.usage
		if r.note != "" {
			usage += " " + r.note
		}
		lines := wrapText(usage, usageWidth)
		if len(lines) == 0 {
			lines = []string{""}
		}
		fmt.Fprintf(sb, "  %-*s%*s%s\n", leftWidth, r.left, gap, "", lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(sb, "%s%s\n", pad, l)
		}
	}
}

func flagSpelling(fl *Flag) string {
	arg := ""
	if !isSwitch(fl.Value) && fl.Meta != "" {
		arg = " <" + fl.Meta + ">"
	}
	if fl.Short != "" {
		return "-" + fl.Short + ", --" + fl.Name + arg
	}
	return "--" + fl.Name + arg
}

func defaultNote(fl *Flag) string {
	if isSwitch(fl.Value) || fl.Default == "" || fl.Default == "0" {
		return ""
	}
	return "(default " + fl.Default + ")"
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(width, 40)
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}
