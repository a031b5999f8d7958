// gtest is the golden-image regression runner: it compiles every test
// program with the compiler under test and compares the image, the
// diagnostics and optionally the listing against a recorded .json file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

type options struct {
	compiler     string
	compilerArgs []string
	testFiles    string
	skipFiles    []string
	report       string
	goldenDir    string
	ignored      []string
	timeout      time.Duration
	jobs         int
	verbose      bool
	listing      bool
}

type runner struct {
	options
	scratch string
}

func main() {
	var (
		opts     options
		args     string
		skip     string
		ignore   string
		generate string
	)
	flag.StringVar(&opts.compiler, "compiler", "./gruc", "Path to the compiler under test.")
	flag.StringVar(&args, "compiler-args", "", "Extra arguments for the compiler (space-separated).")
	flag.StringVar(&generate, "generate-golden", "", "Record golden files for the given sources (space-separated globs).")
	flag.StringVar(&opts.testFiles, "test-files", "tests/*.c", "Glob pattern(s) for files to test (space-separated).")
	flag.StringVar(&skip, "skip-files", "", "Files to skip (space-separated).")
	flag.StringVar(&opts.report, "output", ".test_results.json", "Where to write the JSON report.")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Second, "Timeout for each compiler invocation.")
	flag.IntVar(&opts.jobs, "j", 4, "Number of parallel jobs.")
	flag.BoolVar(&opts.verbose, "v", false, "Log every compilation.")
	flag.BoolVar(&opts.listing, "listing", false, "Also record and compare the -d listing.")
	flag.StringVar(&opts.goldenDir, "dir", "", "Directory holding golden files and the report (defaults to the source's directory).")
	flag.StringVar(&ignore, "ignore-lines", "", "Comma-separated substrings; matching diagnostic lines are not compared.")
	flag.Parse()
	log.SetFlags(0)

	opts.compilerArgs = strings.Fields(args)
	opts.skipFiles = strings.Fields(skip)
	if ignore != "" {
		opts.ignored = strings.Split(ignore, ",")
	}
	opts.jobs = max(opts.jobs, 1)

	scratch, err := os.MkdirTemp("", "gtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Cannot create a scratch directory: %v", cRed, cNone, err)
	}
	defer os.RemoveAll(scratch)
	cleanupOnInterrupt(scratch)

	r := &runner{options: opts, scratch: scratch}
	if generate != "" {
		if err := r.record(generate); err != nil {
			log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
		}
		return
	}

	results, err := r.run()
	if err != nil {
		log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
	}
	if len(results) == 0 {
		log.Printf("No test files match %q.", opts.testFiles)
		return
	}
	r.printSummary(os.Stdout, results)
	if err := r.writeReport(results); err != nil {
		log.Printf("%s[ERROR]%s %v", cRed, cNone, err)
	}
	if hasFailures(results) {
		os.Exit(1)
	}
}

func cleanupOnInterrupt(dir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(dir)
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled.\n", cYellow, cNone)
		os.Exit(1)
	}()
}

// goldenPath names the golden file of a source: .name.c.json next to it, or
// in the -dir directory.
func (r *runner) goldenPath(source string) string {
	name := "." + filepath.Base(source) + ".json"
	if r.goldenDir != "" {
		return filepath.Join(r.goldenDir, name)
	}
	return filepath.Join(filepath.Dir(source), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func hashString(s string) string { return fmt.Sprintf("%x", xxhash.Sum64String(s)) }

// record compiles each matching source once and stores the outcome as its
// golden file. Rejected programs are recorded too; their diagnostics become
// the expectation.
func (r *runner) record(patterns string) error {
	files, err := expandGlobPatterns(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files match %q", patterns)
	}
	if r.goldenDir != "" {
		if err := os.MkdirAll(r.goldenDir, 0755); err != nil {
			return err
		}
	}

	for _, source := range files {
		sum, err := hashFile(source)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", source, err)
		}
		g, err := r.compile(source, sum)
		if err != nil && g.Compile.TimedOut {
			return fmt.Errorf("%s: %w", source, err)
		}
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return err
		}
		path := r.goldenPath(source)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		state := "image"
		if g.Compile.ExitCode != 0 {
			state = "diagnostics"
		}
		log.Printf("%s[RECORDED]%s %s (%s) -> %s", cGreen, cNone, source, state, path)
	}
	return nil
}

// run tests every matching file on a pool of workers. Files whose content
// equals an earlier file are reported as skipped instead of compiled twice.
func (r *runner) run() ([]*FileTestResult, error) {
	if _, err := os.Stat(r.compiler); err != nil {
		return nil, fmt.Errorf("compiler '%s' not found; build it first", r.compiler)
	}
	files, err := expandGlobPatterns(r.testFiles)
	if err != nil {
		return nil, err
	}

	skipped := make(map[string]bool)
	for _, f := range r.skipFiles {
		if abs, err := filepath.Abs(f); err == nil {
			skipped[abs] = true
		}
	}

	type job struct{ file, sum string }
	jobs := make(chan job, len(files))
	out := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < r.jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out <- r.testFile(j.file, j.sum)
			}
		}()
	}

	firstWithHash := make(map[string]string)
	for _, file := range files {
		if skipped[file] {
			out <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		sum, err := hashFile(file)
		if err != nil {
			out <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Cannot hash source: %v", err)}
			continue
		}
		if first, dup := firstWithHash[sum]; dup {
			out <- &FileTestResult{File: file, Status: "SKIP", Message: "Same content as " + first}
			continue
		}
		firstWithHash[sum] = file
		jobs <- job{file, sum}
	}
	close(jobs)
	wg.Wait()
	close(out)

	var results []*FileTestResult
	for res := range out {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, nil
}

func (r *runner) testFile(file, sum string) *FileTestResult {
	path := r.goldenPath(file)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "No golden file; record one with -generate-golden"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	var want Golden
	if err := json.Unmarshal(data, &want); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Malformed golden file %s: %v", path, err)}
	}
	if want.SourceHash != sum {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Source changed since the golden file was recorded", Expected: &want}
	}

	got, err := r.compile(file, sum)
	if err != nil && got.Compile.TimedOut {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error(), Expected: &want, Actual: got}
	}
	if r.verbose {
		log.Printf("[%s] exit %d in %s, image %s", filepath.Base(file), got.Compile.ExitCode, formatDuration(got.Compile.Duration), got.ImageHash)
	}
	return compareGolden(file, &want, got, r.ignored)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func (r *runner) printSummary(w io.Writer, results []*FileTestResult) {
	counts := make(map[string]int)
	var compileTime time.Duration
	compiled := 0
	colors := map[string]string{"PASS": cGreen, "FAIL": cRed, "SKIP": cYellow, "ERROR": cRed}

	for _, res := range results {
		counts[res.Status]++
		fmt.Fprintf(w, "%s[%-5s]%s %s%s%s: %s\n", colors[res.Status], res.Status, cNone, cCyan, res.File, cNone, res.Message)
		if res.Status == "FAIL" {
			fmt.Fprint(w, formatDiff(res.Diff))
		}
		if res.Actual != nil {
			compileTime += res.Actual.Compile.Duration
			compiled++
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "%sSummary:%s %s%d passed%s, %s%d failed%s, %s%d skipped%s, %s%d errored%s of %d\n",
		cBold, cNone,
		cGreen, counts["PASS"], cNone,
		cRed, counts["FAIL"], cNone,
		cYellow, counts["SKIP"], cNone,
		cRed, counts["ERROR"], cNone,
		len(results))
	if compiled > 0 {
		fmt.Fprintf(w, "Average compile time of %s: %s\n", filepath.Base(r.compiler), formatDuration(compileTime/time.Duration(compiled)))
	}
}

// formatDiff indents a cmp.Diff report and colors its removed and added
// lines.
func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		color := ""
		switch trimmed := strings.TrimSpace(line); {
		case strings.HasPrefix(trimmed, "-"):
			color = cRed
		case strings.HasPrefix(trimmed, "+"):
			color = cGreen
		}
		fmt.Fprintf(&sb, "    %s%s%s\n", color, line, cNone)
	}
	return sb.String()
}

func (r *runner) writeReport(results []*FileTestResult) error {
	byFile := make(map[string]*FileTestResult, len(results))
	for _, res := range results {
		byFile[res.File] = res
	}
	data, err := json.MarshalIndent(byFile, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	path := r.report
	if r.goldenDir != "" {
		if err := os.MkdirAll(r.goldenDir, 0755); err != nil {
			return err
		}
		path = filepath.Join(r.goldenDir, r.report)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("Full report saved to %s\n", path)
	return nil
}

func hasFailures(results []*FileTestResult) bool {
	for _, res := range results {
		if res.Status == "FAIL" || res.Status == "ERROR" {
			return true
		}
	}
	return false
}

// expandGlobPatterns returns the regular files matching any pattern as
// absolute paths, each once, in pattern order.
func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil || seen[abs] {
				continue
			}
			if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
				files = append(files, abs)
				seen[abs] = true
			}
		}
	}
	return files, nil
}
