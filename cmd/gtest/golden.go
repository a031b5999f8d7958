package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
)

type Execution struct {
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// Golden is what one compilation of a source file produced. The image and
// listing are empty when the compiler rejected the program.
type Golden struct {
	SourceHash string    `json:"source_hash"`
	Compile    Execution `json:"compile"`
	ImageHash  string    `json:"image_hash,omitempty"`
	Image      string    `json:"image,omitempty"`
	Listing    string    `json:"listing,omitempty"`
}

type FileTestResult struct {
	File     string  `json:"file"`
	Status   string  `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string  `json:"message,omitempty"`
	Diff     string  `json:"diff,omitempty"`
	Expected *Golden `json:"expected,omitempty"`
	Actual   *Golden `json:"actual,omitempty"`
}

// executeCommand runs a command with a timeout and captures its output
func executeCommand(ctx context.Context, command string, args ...string) (Execution, string) {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	execResult := Execution{
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if ctx.Err() == context.DeadlineExceeded {
		execResult.TimedOut = true
		execResult.ExitCode = -1
	} else if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			execResult.ExitCode = exitErr.ExitCode()
		} else {
			execResult.ExitCode = -2
			execResult.Stderr += "\nExecution error: " + err.Error()
		}
	}
	return execResult, stdout.String()
}

// compile runs the compiler on one source file and collects the image it
// writes. Diagnostics mention the source by base name so golden files do not
// depend on where the tree is checked out.
func (r *runner) compile(source, sum string) (*Golden, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	imagePath := filepath.Join(r.scratch, sum+".txt")
	args := append([]string{"-o", imagePath}, r.compilerArgs...)
	args = append(args, source)

	result, _ := executeCommand(ctx, r.compiler, args...)
	result.Stderr = strings.ReplaceAll(result.Stderr, source, filepath.Base(source))
	g := &Golden{SourceHash: sum, Compile: result}
	if result.TimedOut {
		return g, fmt.Errorf("compilation timed out after %s", r.timeout)
	}
	if result.ExitCode != 0 {
		return g, fmt.Errorf("compilation failed with exit code %d", result.ExitCode)
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return g, fmt.Errorf("compiler succeeded but wrote no image: %w", err)
	}
	g.Image = string(image)
	g.ImageHash = hashString(g.Image)

	if r.listing {
		dump, listing := executeCommand(ctx, r.compiler, append([]string{"-d"}, args...)...)
		if dump.ExitCode != 0 || dump.TimedOut {
			return g, fmt.Errorf("listing failed with exit code %d", dump.ExitCode)
		}
		g.Listing = listing
	}
	return g, nil
}

// filterOutput removes lines containing any of the given substrings
func filterOutput(output string, ignoredSubstrings []string) string {
	if len(ignoredSubstrings) == 0 || output == "" {
		return output
	}
	lines := strings.Split(output, "\n")
	filteredLines := make([]string, 0, len(lines))
	for _, line := range lines {
		ignore := false
		for _, sub := range ignoredSubstrings {
			if sub != "" && strings.Contains(line, sub) {
				ignore = true
				break
			}
		}
		if !ignore {
			filteredLines = append(filteredLines, line)
		}
	}
	return strings.Join(filteredLines, "\n")
}

// compareGolden checks a fresh compilation against the recorded one. Images
// and listings are diffed line by line; a listing is only compared when the
// golden file has one.
func compareGolden(file string, want, got *Golden, ignored []string) *FileTestResult {
	var diffs strings.Builder
	failed := false

	if want.Compile.ExitCode != got.Compile.ExitCode {
		failed = true
		diffs.WriteString(fmt.Sprintf("Exit code mismatch:\n  - Golden: %d\n  - Actual: %d\n", want.Compile.ExitCode, got.Compile.ExitCode))
	}

	wantStderr := filterOutput(want.Compile.Stderr, ignored)
	gotStderr := filterOutput(got.Compile.Stderr, ignored)
	if wantStderr != gotStderr {
		failed = true
		diffs.WriteString(fmt.Sprintf("Diagnostics mismatch:\n%s", cmp.Diff(lines(wantStderr), lines(gotStderr))))
	}

	if want.ImageHash != got.ImageHash {
		failed = true
		diffs.WriteString(fmt.Sprintf("Image mismatch:\n%s", cmp.Diff(lines(want.Image), lines(got.Image))))
	}

	if want.Listing != "" && want.Listing != got.Listing {
		failed = true
		diffs.WriteString(fmt.Sprintf("Listing mismatch:\n%s", cmp.Diff(lines(want.Listing), lines(got.Listing))))
	}

	if failed {
		return &FileTestResult{
			File:     file,
			Status:   "FAIL",
			Message:  "Compiler output differs from the golden file",
			Diff:     diffs.String(),
			Expected: want,
			Actual:   got,
		}
	}

	message := "Image matches the golden file"
	if want.Compile.ExitCode != 0 {
		message = "Rejected with the expected diagnostics"
	}
	return &FileTestResult{File: file, Status: "PASS", Message: message, Expected: want, Actual: got}
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
