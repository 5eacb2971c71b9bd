// locpipe — game localization patch pipeline: translation resolution,
// rule-based correction, and binary locres resource generation.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zxsj-tools/locpipe/config"
	"github.com/zxsj-tools/locpipe/i18n"
	"github.com/zxsj-tools/locpipe/identity"
	"github.com/zxsj-tools/locpipe/lockfile"
	"github.com/zxsj-tools/locpipe/locres"
	"github.com/zxsj-tools/locpipe/manifest"
	"github.com/zxsj-tools/locpipe/origins"
	"github.com/zxsj-tools/locpipe/postproc"
	"github.com/zxsj-tools/locpipe/resolver"
	"github.com/zxsj-tools/locpipe/rules"
	"github.com/zxsj-tools/locpipe/script"
	"github.com/zxsj-tools/locpipe/textout"
	"github.com/zxsj-tools/locpipe/transmap"
	"github.com/zxsj-tools/locpipe/unified"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// Log helpers translate their format string, so the English literals at the
// call sites double as gettext msgids.

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locpipe",
		Short: "Game localization patch pipeline",
		Long: `locpipe — game localization patch pipeline.

Resolves Chinese source strings against an accumulated translation table
(exact, cross-namespace, number-pattern, and script-variant matching),
applies spreadsheet-driven correction rules with a full audit trail, and
compiles the result into binary locres resources plus format string text
and JSON files laid out for the game client.

Commands:
  status      Show configured inputs and table sizes
  translate   Resolve translations and apply correction rules
  generate    Build locres and format string output files
  hash        Print the key and source hashes of a string`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newGenerateCmd(),
		newHashCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// loadConfig loads locpipe.yaml from the project root, erroring if absent.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no %s found in %s", config.FileName, rootDir)
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locpipe version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// hash (print identity hashes for a string)
// ---------------------------------------------------------------------------

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <string>",
		Short: "Print the key and source hashes of a string",
		Long: `Print the key hash (CityHash64 of UTF-16LE, folded to 32 bits) and
the source string hash (CRC32 of UTF-16LE with terminator) used in locres
files and the hash manifest.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s := args[0]
			fmt.Printf("key hash:    %d\n", identity.KeyHash(s))
			fmt.Printf("source hash: %d\n", identity.SourceStringHash(s))
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: configured inputs + table sizes)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured inputs and table sizes",
		Long: `Show the configured pipeline inputs and the size of each table that
can be loaded. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	absRoot, _ := filepath.Abs(rootDir)
	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:        %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Config:      %s\n", filepath.Join(absRoot, config.FileName))
	fmt.Fprintln(os.Stderr)

	if table, skipped, err := unified.Load(cfg.Abs(cfg.SourceData)); err != nil {
		fmt.Fprintf(os.Stderr, "  Source data:     %s (%v)\n", cfg.SourceData, err)
	} else {
		fmt.Fprintf(os.Stderr, "  Source data:     %d strings in %d namespaces", table.Len(), len(table))
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, " (%d non-string values skipped)", skipped)
		}
		fmt.Fprintln(os.Stderr)
	}

	if tmap, err := transmap.Load(cfg.Abs(cfg.TranslationMap)); err != nil {
		fmt.Fprintf(os.Stderr, "  Translation map: %s (%v)\n", cfg.TranslationMap, err)
	} else {
		fmt.Fprintf(os.Stderr, "  Translation map: %d translations in %d namespaces\n", tmap.Len(), len(tmap))
	}

	if m, warnings, err := manifest.Load(cfg.Abs(cfg.Manifest)); err != nil {
		fmt.Fprintf(os.Stderr, "  Hash manifest:   %s (%v)\n", cfg.Manifest, err)
	} else {
		fmt.Fprintf(os.Stderr, "  Hash manifest:   %d entries in %d namespaces", m.Len(), len(m.Namespaces()))
		if len(warnings) > 0 {
			fmt.Fprintf(os.Stderr, " (%d warnings)", len(warnings))
		}
		fmt.Fprintln(os.Stderr)
	}

	if org, err := origins.Load(cfg.Abs(cfg.Origins)); err != nil {
		fmt.Fprintf(os.Stderr, "  Key origins:     %s (%v)\n", cfg.Origins, err)
	} else {
		keys := 0
		for _, m := range org {
			keys += len(m)
		}
		fmt.Fprintf(os.Stderr, "  Key origins:     %d keys in %d namespaces\n", keys, len(org))
	}

	if ruleList, err := loadRules(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "  Ruleset:         %s (%v)\n", cfg.Ruleset.Path, err)
	} else {
		fmt.Fprintf(os.Stderr, "  Ruleset:         %d rules\n", len(ruleList))
	}

	fmt.Fprintln(os.Stderr)
	return nil
}

// ---------------------------------------------------------------------------
// translate (resolve translations, apply correction rules)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Resolve translations and apply correction rules",
		Long: `Resolve every Chinese or Cyrillic source string against the translation
table: per-namespace exact match first, then cross-namespace exact,
number-pattern, and script-variant matching. Newly sourced translations
are merged back into the table. Correction rules from the ruleset
spreadsheet are then applied with a full audit report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runTranslate(ctx)
		},
	}
}

// translateStats counts resolution outcomes per run.
type translateStats struct {
	processed      int
	skippedKeyword int
	skippedScript  int
	missing        int
	byMethod       map[resolver.Method]int
}

// resolveAll walks the source table in deterministic order and applies the
// resolver to every eligible string. Strings carrying asset references or
// no Chinese/Cyrillic text pass through untouched.
func resolveAll(res *resolver.Resolver, table unified.Table) (translated, untranslated unified.Table, used transmap.Map, stats translateStats) {
	translated = make(unified.Table, len(table))
	untranslated = make(unified.Table)
	used = transmap.Map{}
	stats.byMethod = make(map[resolver.Method]int)

	namespaces := make([]string, 0, len(table))
	for ns := range table {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		pairs := table[ns]
		out := make(map[string]string, len(pairs))
		translated[ns] = out

		keys := make([]string, 0, len(pairs))
		for k := range pairs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			source := pairs[key]
			out[key] = source
			stats.processed++

			if strings.Contains(source, ".data") || strings.Contains(source, "Texture2D") {
				stats.skippedKeyword++
				continue
			}
			if !resolver.ContainsChineseOrCyrillic(source) {
				stats.skippedScript++
				continue
			}

			translation, method, err := res.Resolve(ns, source)
			if err != nil {
				stats.missing++
				if untranslated[ns] == nil {
					untranslated[ns] = make(map[string]string)
				}
				untranslated[ns][source] = ""
				continue
			}
			out[key] = translation
			used.Record(ns, source, translation)
			stats.byMethod[method]++
		}
	}
	return translated, untranslated, used, stats
}

// trackSourceChanges diffs the source table against locpipe.lock, refreshes
// the recorded checksums, and returns how many strings were new or changed.
func trackSourceChanges(table unified.Table) (int, error) {
	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return 0, err
	}

	changed := 0
	for ns, pairs := range table {
		entries := make(map[string]string, len(pairs))
		keys := make([]string, 0, len(pairs))
		for k, v := range pairs {
			entries[k] = lockfile.SourceContent(k, v)
			keys = append(keys, k)
		}
		changed += len(lock.FilterChanged(ns, entries))
		lock.UpdateBatch(ns, entries)
		lock.Clean(ns, keys)
	}
	for _, ns := range lock.Namespaces() {
		if _, ok := table[ns]; !ok {
			lock.RemoveNamespace(ns)
		}
	}

	if err := lock.Save(); err != nil {
		return 0, err
	}
	return changed, nil
}

func loadRules(cfg *config.Config) ([]rules.Rule, error) {
	path := cfg.Abs(cfg.Ruleset.Path)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return rules.LoadCSV(path)
	}
	return rules.LoadXLSX(path, cfg.Ruleset.Sheet)
}

func runTranslate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, skipped, err := unified.Load(cfg.Abs(cfg.SourceData))
	if err != nil {
		return err
	}
	logInfo("Loaded %d source strings in %d namespaces", table.Len(), len(table))
	if skipped > 0 {
		logWarning("Skipped %d non-string source values", skipped)
	}

	if changed, err := trackSourceChanges(table); err != nil {
		logWarning("Source change tracking unavailable: %v", err)
	} else if changed > 0 {
		logInfo("%d source strings are new or changed since the last run", changed)
	}

	tmap, err := transmap.Load(cfg.Abs(cfg.TranslationMap))
	if err != nil {
		return err
	}
	logInfo("Loaded translation map with %d entries", tmap.Len())

	var conv script.Converter
	if occ, err := script.NewOpenCC(); err != nil {
		logWarning("Script conversion unavailable: %v", err)
		conv = script.Identity{}
	} else {
		conv = occ
	}

	res := resolver.New(tmap, conv)
	translated, untranslated, used, stats := resolveAll(res, table)

	logInfo("Processed %d strings: %d skipped (asset references), %d skipped (no Chinese/Cyrillic)",
		stats.processed, stats.skippedKeyword, stats.skippedScript)
	for _, method := range []resolver.Method{
		resolver.MethodNamespaceExact, resolver.MethodGlobalExact,
		resolver.MethodPattern, resolver.MethodScriptExact, resolver.MethodScriptPattern,
	} {
		if n := stats.byMethod[method]; n > 0 {
			logInfo("  %-16s %d", method, n)
		}
	}
	if stats.missing > 0 {
		logWarning("%d strings have no translation", stats.missing)
	}

	if used.Len() > 0 {
		tmap.Merge(used)
		if err := tmap.Save(cfg.Abs(cfg.TranslationMap)); err != nil {
			return err
		}
		logSuccess("Translation map updated (%d entries)", tmap.Len())
	}

	if untranslated.Len() > 0 {
		if err := untranslated.Save(cfg.Abs(cfg.Output.Untranslated)); err != nil {
			return err
		}
		logInfo("Untranslated excerpt written to %s", cfg.Output.Untranslated)
	}

	ruleList, err := loadRules(cfg)
	if err != nil {
		return err
	}

	final := map[string]map[string]string(translated)
	if len(ruleList) > 0 {
		logInfo("Applying %d correction rules", len(ruleList))
		engine := rules.NewEngine(ruleList)
		corrected, subs, panics, err := engine.CorrectAll(ctx, translated, table)
		if err != nil {
			return err
		}
		if panics > 0 {
			logWarning("%d entries passed through uncorrected after processing errors", panics)
		}
		logInfo("Made %d substitutions", len(subs))

		report := rules.BuildReport(subs, engine.Rules())
		if err := rules.SaveReport(report, cfg.Abs(cfg.Output.Report)); err != nil {
			return err
		}
		if len(report) > 0 {
			logInfo("Correction report written to %s", cfg.Output.Report)
		}
		final = corrected
	} else {
		logInfo("No correction rules loaded, skipping correction pass")
	}

	if err := unified.Table(final).Save(cfg.Abs(cfg.Translated)); err != nil {
		return err
	}
	logSuccess("Translated data written to %s", cfg.Translated)
	return nil
}

// ---------------------------------------------------------------------------
// generate (post-process + build locres and format string outputs)
// ---------------------------------------------------------------------------

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Build locres and format string output files",
		Long: `Apply presentation post-processing to the translated table, then route
every key through its recorded origins: locres-capable keys go into the
binary resource file, format string keys into per-namespace .txt and
.json files. The compiled resource is copied into every configured
locale directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate()
		},
	}
}

// routed collects the per-channel output data produced from the origins
// table.
type routed struct {
	locres  []locres.Namespace
	txt     map[string]map[string]string
	json    map[string]map[string]textout.JSONEntry
	uiOnly  int
	missing int
}

// routeOutputs assigns every translated key to its output channels. A key
// goes to each channel at most once regardless of how many origin records
// name it. Locres namespaces follow the manifest's first-seen order.
func routeOutputs(data unified.Table, m *manifest.Manifest, org origins.Table) (*routed, []string) {
	r := &routed{
		txt:  make(map[string]map[string]string),
		json: make(map[string]map[string]textout.JSONEntry),
	}
	var warnings []string
	buckets := make(map[string]*locres.Namespace)

	namespaces := make([]string, 0, len(org))
	for ns := range org {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		keys := make([]string, 0, len(org[ns]))
		for k := range org[ns] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			translation, ok := data[ns][key]
			if !ok {
				r.missing++
				continue
			}
			sources := org[ns][key]
			entry, capable := m.Lookup(ns, key)

			doneLocres, doneTxt, doneJSON := false, false, false
			for _, src := range sources {
				switch {
				case src.Kind == origins.KindLocRes && capable && !doneLocres:
					bucket := buckets[ns]
					if bucket == nil {
						bucket = &locres.Namespace{Hash: entry.NamespaceHash, Name: ns}
						buckets[ns] = bucket
					}
					bucket.Entries = append(bucket.Entries, locres.Entry{
						KeyHash:    entry.KeyHash,
						Key:        key,
						SourceHash: entry.SourceHash,
						Value:      identity.NormalizeLF(translation),
					})
					doneLocres = true
				case src.Kind == origins.KindFormatTxt && !doneTxt:
					if r.txt[ns] == nil {
						r.txt[ns] = make(map[string]string)
					}
					r.txt[ns][key] = translation
					doneTxt = true
				case src.Kind == origins.KindFormatJSON && !doneJSON:
					je := textout.JSONEntry{Text: translation}
					if src.Metadata != nil {
						je.Metadata = *src.Metadata
					}
					if r.json[ns] == nil {
						r.json[ns] = make(map[string]textout.JSONEntry)
					}
					r.json[ns][key] = je
					doneJSON = true
				}
			}

			// UI asset strings have no locres hashes and no format string
			// file of their own. They land in a dedicated placeholder file
			// so the patch still carries them.
			if origins.OnlyUIAssets(sources) && !doneLocres && !doneTxt && !doneJSON {
				if r.txt[textout.UIAssetsNamespace] == nil {
					r.txt[textout.UIAssetsNamespace] = make(map[string]string)
				}
				r.txt[textout.UIAssetsNamespace][key] = translation
				r.uiOnly++
			}
		}
	}

	// Manifest order first, stragglers after.
	seen := make(map[string]bool)
	for _, ns := range m.Namespaces() {
		if bucket, ok := buckets[ns]; ok && len(bucket.Entries) > 0 {
			r.locres = append(r.locres, *bucket)
			seen[ns] = true
		}
	}
	var extras []string
	for ns, bucket := range buckets {
		if !seen[ns] && len(bucket.Entries) > 0 {
			extras = append(extras, ns)
		}
	}
	sort.Strings(extras)
	for _, ns := range extras {
		warnings = append(warnings, fmt.Sprintf("namespace %q not in manifest order, appending", ns))
		r.locres = append(r.locres, *buckets[ns])
	}

	return r, warnings
}

func runGenerate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, skipped, err := unified.Load(cfg.Abs(cfg.Translated))
	if err != nil {
		return err
	}
	logInfo("Loaded %d translated strings in %d namespaces", data.Len(), len(data))
	if skipped > 0 {
		logWarning("Skipped %d non-string values", skipped)
	}

	proc := cfg.Processor()
	stats := proc.ProcessAll(data)
	logPostprocStats(stats)

	if err := data.Save(cfg.Abs(cfg.Output.DebugExport)); err != nil {
		return err
	}
	logInfo("Post-processed table exported to %s", cfg.Output.DebugExport)

	m, warnings, err := manifest.Load(cfg.Abs(cfg.Manifest))
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logWarning("%s", w)
	}
	logInfo("Loaded hash manifest: %d entries in %d namespaces", m.Len(), len(m.Namespaces()))

	org, err := origins.Load(cfg.Abs(cfg.Origins))
	if err != nil {
		return err
	}

	r, routeWarnings := routeOutputs(data, m, org)
	for _, w := range routeWarnings {
		logWarning("%s", w)
	}
	if r.missing > 0 {
		logInfo("%d keys from origins have no translation entry", r.missing)
	}
	if r.uiOnly > 0 {
		logInfo("%d UI-only keys routed to the placeholder text file", r.uiOnly)
	}

	locresDir := cfg.Abs(cfg.Output.LocResDir)
	textDir := cfg.Abs(cfg.Output.TextDir)
	for _, dir := range []string{locresDir, textDir} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if len(r.locres) > 0 {
		entries := 0
		for _, ns := range r.locres {
			entries += len(ns.Entries)
		}

		var buf bytes.Buffer
		if err := locres.Write(&buf, r.locres); err != nil {
			return err
		}

		targets := []string{filepath.Join(locresDir, cfg.Locales.Primary, "Game.locres")}
		for _, loc := range cfg.Locales.Copies {
			targets = append(targets, filepath.Join(locresDir, loc, "Game.locres"))
		}
		dataCopiesDir := cfg.Abs(cfg.Locales.DataCopiesDir)
		for _, loc := range cfg.Locales.DataCopies {
			targets = append(targets, filepath.Join(dataCopiesDir, loc, "Game.locres"))
		}
		for _, target := range targets {
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
				return err
			}
		}
		logSuccess("Wrote %d locres entries across %d namespaces to %d locale files",
			entries, len(r.locres), len(targets))
	} else {
		logInfo("No data for locres generation")
	}

	txtWritten, txtWarnings, err := textout.WriteTxtFiles(r.txt, textDir)
	if err != nil {
		return err
	}
	for _, w := range txtWarnings {
		logWarning("%s", w)
	}
	jsonWritten, err := textout.WriteJSONFiles(r.json, textDir)
	if err != nil {
		return err
	}
	logSuccess("Wrote %d format string .txt files and %d .json files", txtWritten, jsonWritten)
	return nil
}

func logPostprocStats(stats postproc.Stats) {
	counts := []struct {
		n    int
		what string
	}{
		{stats.ActivityShortens, "activity names shortened"},
		{stats.AccentRemovals, "entries had accents removed"},
		{stats.LineBreaks, "entries wrapped"},
		{stats.SmartQuotes, "entries got smart quotes"},
		{stats.Bullets, "bullet separators replaced"},
		{stats.Possessives, "possessives corrected"},
		{stats.TagHeals, "entries had markup tags healed"},
		{stats.ColonSpaces, "trailing colons padded"},
		{stats.MidSpaces, "entries converted to narrow spaces"},
		{stats.BuffIDs, "buff IDs inserted"},
		{stats.MapAcronyms, "map names abbreviated"},
		{stats.Overrides, "entries overridden"},
		{stats.Deletions, "entries deleted"},
	}
	for _, c := range counts {
		if c.n > 0 {
			logInfo("  %d %s", c.n, c.what)
		}
	}
}
