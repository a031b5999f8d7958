package config

import (
	"fmt"
	"strings"

	"github.com/xplshn/gruc/pkg/cli"
)

type Feature int

const (
	FeatEnglishKeywords Feature = iota
	FeatRussianKeywords
	FeatRadixPrefixes
	FeatFold
	FeatLineComments
	FeatCount
)

type Warning int

const (
	WarnOverflow Warning = iota
	WarnFloatEquality
	WarnAssignInCond
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	StdName    string
	// Lang selects the diagnostic language: "ru" or "en".
	Lang       string
	Backend    string
	MaxThreads int
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		StdName:    "ruc",
		Lang:       "ru",
		Backend:    "vm",
		MaxThreads: 1,
	}

	features := map[Feature]Info{
		FeatEnglishKeywords: {"en-keywords", true, "Recognize English keyword spellings (int, while, ...)."},
		FeatRussianKeywords: {"ru-keywords", true, "Recognize Russian keyword spellings (цел, пока, ...)."},
		FeatRadixPrefixes:   {"radix", true, "Allow 0x, 0o, 0b and 0d integer prefixes."},
		FeatFold:            {"fold", true, "Fold operations on constant operands while building the tree."},
		FeatLineComments:    {"line-comments", true, "Recognize '//' line comments."},
	}

	warnings := map[Warning]Info{
		WarnOverflow:      {"overflow", true, "Warn when an integer constant is too large or constant folding overflows int."},
		WarnFloatEquality: {"float-equal", true, "Warn when floating values are compared with == or !=."},
		WarnAssignInCond:  {"assign-in-cond", false, "Warn when an assignment is used as a condition."},
		WarnPedantic:      {"pedantic", false, "Issue all warnings demanded by the strict standard."},
		WarnExtra:         {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd selects the keyword sets of a language standard. "ruc" accepts
// both spellings, "ruc-en" and "ruc-ru" only one of them.
func (c *Config) ApplyStd(stdName string) error {
	isPedantic := c.IsWarningEnabled(WarnPedantic)

	switch stdName {
	case "ruc", "":
		c.SetFeature(FeatEnglishKeywords, true)
		c.SetFeature(FeatRussianKeywords, true)
		stdName = "ruc"
	case "ruc-en":
		c.SetFeature(FeatEnglishKeywords, true)
		c.SetFeature(FeatRussianKeywords, false)
	case "ruc-ru":
		c.SetFeature(FeatEnglishKeywords, false)
		c.SetFeature(FeatRussianKeywords, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'ruc', 'ruc-en', 'ruc-ru'", stdName)
	}
	c.StdName = stdName

	if isPedantic {
		c.SetFeature(FeatRadixPrefixes, false)
		c.SetWarning(WarnAssignInCond, true)
	}
	return nil
}

// SetLang validates and stores the diagnostic language.
func (c *Config) SetLang(lang string) error {
	switch lang {
	case "ru", "en":
		c.Lang = lang
		return nil
	}
	return fmt.Errorf("unsupported diagnostic language '%s'. Supported: 'ru', 'en'", lang)
}

// SetupFlagGroups registers -W and -F flag groups in the order of the
// Warning and Feature enums, so entry i controls enum value i.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		enabled, disabled := info.Enabled, false
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: &enabled, Disabled: &disabled, Default: info.Enabled,
		}
	}

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		enabled, disabled := info.Enabled, false
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: &enabled, Disabled: &disabled, Default: info.Enabled,
		}
	}

	fs.AddFlagGroup("Warning flags", "warning", warningFlags)
	fs.AddFlagGroup("Feature flags", "feature", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies parsed group flags into the configuration. Only
// flags that differ from their default are applied, and -Wno-/-Fno- win.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled && !entry.Default {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled && !entry.Default {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}

// applyFlag handles one -W<name>, -Wno-<name>, -F<name> or -Fno-<name>.
// Names without a group letter, like -pedantic, are warnings.
func (c *Config) applyFlag(flag string) {
	body := strings.TrimPrefix(flag, "-")
	feature := strings.HasPrefix(body, "F")
	if feature || strings.HasPrefix(body, "W") {
		body = body[1:]
	}
	name, off := strings.CutPrefix(body, "no-")

	if feature {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, !off)
		}
		return
	}
	if name == "all" {
		for w := Warning(0); w < WarnCount; w++ {
			if w != WarnPedantic {
				c.SetWarning(w, !off)
			}
		}
		return
	}
	if w, ok := c.WarningMap[name]; ok {
		c.SetWarning(w, !off)
	}
}

// ProcessFlags applies -W/-F style flags given as plain strings, such as the
// ones listed in a workspace file. -Wall, -Wno-all and -pedantic go first so
// specific flags can override them.
func (c *Config) ProcessFlags(flags []string) {
	isGlobal := func(name string) bool {
		name = strings.TrimPrefix(name, "-")
		return name == "Wall" || name == "Wno-all" || name == "pedantic"
	}
	for _, flag := range flags {
		if isGlobal(flag) {
			c.applyFlag(flag)
		}
	}
	for _, flag := range flags {
		if !isGlobal(flag) {
			c.applyFlag(flag)
		}
	}
}
