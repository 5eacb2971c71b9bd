// Package config loads the locpipe.yaml pipeline configuration.
//
// When locpipe.yaml exists in the project root it is the sole source of
// truth for input and output paths. Relative paths resolve against the
// project root, so the file can live in the repo and work from any
// checkout location.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zxsj-tools/locpipe/postproc"
)

// FileName is the default config file name.
const FileName = "locpipe.yaml"

// Ruleset points at the correction rule spreadsheet.
type Ruleset struct {
	// Path to the .xlsx or .csv rule file.
	Path string `yaml:"path"`
	// Sheet is the worksheet name for .xlsx files (default "Sheet1").
	Sheet string `yaml:"sheet,omitempty"`
}

// Output collects the pipeline's output locations.
type Output struct {
	// LocResDir is the base directory for compiled resource files,
	// conventionally Content/Localization/Game.
	LocResDir string `yaml:"locres_dir"`
	// TextDir is the base directory for format string text and JSON files,
	// conventionally gamedata/client/FormatString.
	TextDir string `yaml:"text_dir"`
	// Report is where the correction audit report is written.
	Report string `yaml:"report,omitempty"`
	// Untranslated is where strings without a translation are dumped.
	Untranslated string `yaml:"untranslated,omitempty"`
	// DebugExport is where the post-processed table is exported for
	// inspection.
	DebugExport string `yaml:"debug_export,omitempty"`
}

// Locales controls which locale directories receive the compiled resource
// file.
type Locales struct {
	// Primary locale, written first (default "zh-Hans").
	Primary string `yaml:"primary,omitempty"`
	// Copies are sibling locale directories that get a byte-identical copy.
	Copies []string `yaml:"copies,omitempty"`
	// DataCopiesDir is an extra tree (relative to the project root) that
	// also receives per-locale copies of the compiled resource file.
	DataCopiesDir string `yaml:"data_copies_dir,omitempty"`
	// DataCopies are the locale names under DataCopiesDir.
	DataCopies []string `yaml:"data_copies,omitempty"`
}

// Deletion names one (namespace, key) pair removed after post-processing.
type Deletion struct {
	Namespace string `yaml:"namespace"`
	Key       string `yaml:"key"`
}

// Postprocess holds the presentation cleanup settings.
type Postprocess struct {
	// DebugIDs prefixes every value with its namespace and key.
	DebugIDs bool `yaml:"debug_ids,omitempty"`
	// Namespaces maps namespace names to their cleanup tuning.
	Namespaces map[string]postproc.NamespaceConfig `yaml:"namespaces,omitempty"`
	// Overrides force specific values regardless of the pipeline result.
	Overrides map[string]map[string]string `yaml:"overrides,omitempty"`
	// Deletions remove entries entirely.
	Deletions []Deletion `yaml:"deletions,omitempty"`
}

// Config is the top-level locpipe.yaml structure.
type Config struct {
	// SourceData is the unified source JSON (namespace -> key -> text).
	SourceData string `yaml:"source_data"`
	// TranslationMap is the accumulated translation table JSON.
	TranslationMap string `yaml:"translation_map"`
	// Manifest is the hash manifest CSV.
	Manifest string `yaml:"manifest"`
	// Origins is the key origins JSON.
	Origins string `yaml:"origins"`
	// Translated is the resolved and corrected translation table, written
	// by `locpipe translate` and read by `locpipe generate`.
	Translated string `yaml:"translated,omitempty"`

	Ruleset     Ruleset     `yaml:"ruleset"`
	Output      Output      `yaml:"output"`
	Locales     Locales     `yaml:"locales"`
	Postprocess Postprocess `yaml:"postprocess"`

	root string
}

// shopNamespaces share the narrow item-card layout.
var shopNamespaces = []string{
	"RareEquipmentShop", "ActivityShop", "CampBlueShop", "CampRedShop",
	"DailyRewardShop", "FashionShop", "HYCPTShop", "NvwaStoneShop",
	"ShiTuShop", "SuitShop", "faction_shop",
}

// DefaultNamespaces returns the built-in per-namespace cleanup tuning:
// shop namespaces wrap at 10 characters, map data at 60, and task dialogue
// uses narrow spaces.
func DefaultNamespaces() map[string]postproc.NamespaceConfig {
	m := make(map[string]postproc.NamespaceConfig, len(shopNamespaces)+2)
	for _, ns := range shopNamespaces {
		m[ns] = postproc.NamespaceConfig{LineBreakMax: 10}
	}
	m["mapdata"] = postproc.NamespaceConfig{LineBreakMax: 60}
	m["FZCTmplTaskTalk"] = postproc.NamespaceConfig{MidSpaces: true}
	return m
}

// Load reads and validates locpipe.yaml from the given directory. Returns
// nil if the file does not exist.
func Load(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.root = rootDir

	for name, value := range map[string]string{
		"source_data":       cfg.SourceData,
		"translation_map":   cfg.TranslationMap,
		"manifest":          cfg.Manifest,
		"origins":           cfg.Origins,
		"ruleset.path":      cfg.Ruleset.Path,
		"output.locres_dir": cfg.Output.LocResDir,
		"output.text_dir":   cfg.Output.TextDir,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s: missing required field %q", path, name)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Ruleset.Sheet == "" {
		c.Ruleset.Sheet = "Sheet1"
	}
	if c.Locales.Primary == "" {
		c.Locales.Primary = "zh-Hans"
	}
	if c.Locales.Copies == nil {
		c.Locales.Copies = []string{"zh-Hant"}
	}
	if c.Locales.DataCopiesDir == "" {
		c.Locales.DataCopiesDir = "output/gamedata/client/ZCTranslateData/Game"
	}
	if c.Locales.DataCopies == nil {
		c.Locales.DataCopies = []string{"en", "ru", "zh-Hans", "zh-Hant"}
	}
	if c.Translated == "" {
		c.Translated = "output/translated.json"
	}
	if c.Output.Report == "" {
		c.Output.Report = "output/corrections_report.json"
	}
	if c.Output.Untranslated == "" {
		c.Output.Untranslated = "output/untranslated.json"
	}
	if c.Output.DebugExport == "" {
		c.Output.DebugExport = "output/translated_debug.json"
	}

	// User namespace settings layer over the built-in defaults.
	merged := DefaultNamespaces()
	for ns, nc := range c.Postprocess.Namespaces {
		merged[ns] = nc
	}
	c.Postprocess.Namespaces = merged
}

// Abs resolves a configured path against the project root.
func (c *Config) Abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

// Processor builds a postproc.Processor from the configured settings.
func (c *Config) Processor() *postproc.Processor {
	p := postproc.NewProcessor()
	p.Namespaces = c.Postprocess.Namespaces
	p.Overrides = c.Postprocess.Overrides
	p.DebugIDs = c.Postprocess.DebugIDs
	for _, d := range c.Postprocess.Deletions {
		p.Deletions = append(p.Deletions, [2]string{d.Namespace, d.Key})
	}
	return p
}
