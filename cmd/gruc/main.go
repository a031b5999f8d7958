package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/xplshn/gruc/pkg/cli"
	"github.com/xplshn/gruc/pkg/codegen"
	"github.com/xplshn/gruc/pkg/compiler"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/workspace"
)

var log = commonlog.GetLogger("gruc")

func main() {
	app := cli.NewApp("gruc")
	app.Synopsis = "[options] <input.c> ..."
	app.Description = "A compiler for RuC, the bilingual teaching dialect of C, targeting the RuC virtual machine."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/gruc>"

	var (
		outFile   string
		std       string
		target    string
		lang      string
		wsDir     string
		verbosity int
		threads   int
		pedantic  bool
		wall      bool
		wnoAll    bool
		dump      bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the image into <file> (default export.txt).", "file")
	fs.String(&target, "target", "t", "", "Set the image format (vm, cbor).", "backend")
	fs.Bool(&dump, "dump", "d", false, "Print a disassembly of the generated image and exit.")
	fs.String(&std, "std", "", "", "Specify language standard (ruc, ruc-en, ruc-ru)", "std")
	fs.String(&lang, "lang", "", "", "Language of diagnostics (ru, en).", "lang")
	fs.String(&wsDir, "workspace", "w", "", "Read sources and settings from the ruc.toml in <dir>.", "dir")
	fs.Int(&threads, "max-threads", "", 0, "Maximum thread count recorded in the image.", "n")
	fs.Count(&verbosity, "verbose", "v", "Log compiler phases; repeat (or --verbose=2) for details.")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings demanded by the current RuC std.")
	fs.Bool(&wall, "Wall", "", false, "Enable most warnings.")
	fs.Bool(&wnoAll, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		commonlog.Configure(verbosity, nil)

		ws, err := loadWorkspace(wsDir, len(inputFiles) == 0)
		if err != nil {
			log.Errorf("%v", err)
			return err
		}

		// Pedantic flag affects everything else
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		if ws != nil {
			if err := ws.Apply(cfg); err != nil {
				log.Errorf("%v", err)
				return err
			}
			if len(inputFiles) == 0 {
				inputFiles = ws.SourcePaths()
			}
			if outFile == "" {
				outFile = ws.OutputPath()
			}
		}

		// Command line settings override the workspace
		if std == "" {
			std = cfg.StdName
		}
		if err := cfg.ApplyStd(std); err != nil {
			log.Errorf("%v", err)
			return err
		}
		if lang != "" {
			if err := cfg.SetLang(lang); err != nil {
				log.Errorf("%v", err)
				return err
			}
		}
		if target != "" {
			cfg.Backend = target
		}
		if threads > 0 {
			cfg.MaxThreads = threads
		}
		if outFile == "" {
			outFile = "export.txt"
		}
		if wall {
			cfg.ProcessFlags([]string{"-Wall"})
		}
		if wnoAll {
			cfg.ProcessFlags([]string{"-Wno-all"})
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)

		backend, err := codegen.NewBackend(cfg.Backend)
		if err != nil {
			log.Errorf("%v", err)
			return err
		}

		sources, err := compiler.ReadSources(inputFiles)
		if err != nil {
			log.Errorf("%v", err)
			return err
		}
		res, err := compiler.Compile(sources, cfg, os.Stderr)
		if err != nil {
			if !errors.Is(err, compiler.ErrDiagnostics) {
				log.Errorf("%v", err)
			}
			return err
		}

		if dump {
			return codegen.Disassemble(os.Stdout, res.Image)
		}

		log.Infof("Writing '%s' image to '%s'...", cfg.Backend, outFile)
		out, err := backend.Generate(res.Image, cfg)
		if err != nil {
			log.Errorf("image generation failed: %v", err)
			return err
		}
		if err := os.WriteFile(outFile, out.Bytes(), 0o644); err != nil {
			log.Errorf("could not write '%s': %v", outFile, err)
			return err
		}
		log.Infof("Done!")
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// loadWorkspace reads the workspace named on the command line or, when no
// input files were given, the nearest one above the working directory.
func loadWorkspace(dir string, search bool) (*workspace.Workspace, error) {
	if dir != "" {
		return workspace.Load(dir)
	}
	if !search {
		return nil, nil
	}
	ws, err := workspace.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("no input files specified and no %s found", workspace.FileName)
	}
	return ws, nil
}
