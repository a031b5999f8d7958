// Package compiler runs the whole pipeline over an ordered list of source
// files: every file is scanned into one token stream, parsed and checked as
// a single translation unit, and lowered to an image when no error was
// reported.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/builder"
	"github.com/xplshn/gruc/pkg/codegen"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/lexer"
	"github.com/xplshn/gruc/pkg/parser"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

var log = commonlog.GetLogger("gruc")

// ErrDiagnostics is returned when the program had errors; they were already
// reported.
var ErrDiagnostics = errors.New("compilation failed")

type Source struct {
	Name    string
	Content []rune
}

// Result is the outcome of one compilation. Image is nil when errors were
// reported.
type Result struct {
	Image    *codegen.Image
	Syntax   *syntax.Syntax
	Reporter *util.Reporter
}

// ReadSources loads files in order.
func ReadSources(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		sources = append(sources, Source{Name: path, Content: []rune(string(content))})
	}
	return sources, nil
}

// Compile checks sources as one translation unit and generates its image.
// Diagnostics are printed to diag as they are found.
func Compile(sources []Source, cfg *config.Config, diag io.Writer) (*Result, error) {
	if len(sources) == 0 {
		return nil, errors.New("no input files specified")
	}
	r := util.NewReporter(cfg, diag)
	sx := syntax.New(tree.Item(ast.KindUnit), r)
	res := &Result{Syntax: sx, Reporter: r}

	log.Infof("Tokenizing %d source file(s)...", len(sources))
	var tokens []token.Token
	for _, src := range sources {
		base := r.AddSourceFile(src.Name, src.Content)
		for _, tok := range lexer.NewLexer(src.Content, base, sx, cfg).Tokenize() {
			if tok.Type != token.EOF {
				tokens = append(tokens, tok)
			}
		}
	}
	last := r.SourceFiles()[len(sources)-1]
	end := last.Base + len(last.Content)
	tokens = append(tokens, token.Token{Type: token.EOF, Loc: token.Location{Begin: end, End: end}})

	log.Infof("Parsing and checking...")
	root := parser.NewParser(tokens, builder.New(sx, cfg)).Parse()
	if r.HadError() {
		log.Debugf("%d error(s), skipping code generation", r.ErrorCount())
		return res, fmt.Errorf("%w: %d error(s)", ErrDiagnostics, r.ErrorCount())
	}

	log.Infof("Generating code...")
	img, err := codegen.NewContext(sx, cfg).Generate(root)
	if err != nil {
		return res, err
	}
	res.Image = img
	return res, nil
}

// CompileString is Compile for a single in-memory file.
func CompileString(name, src string, cfg *config.Config, diag io.Writer) (*Result, error) {
	return Compile([]Source{{Name: name, Content: []rune(src)}}, cfg, diag)
}
