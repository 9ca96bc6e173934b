// Package config handles command-line parsing, the optional YAML defaults
// file, and the post-processing that turns both into a resolved Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/internal/logging"
	"github.com/joe/unisync/internal/syncengine"
	"github.com/joe/unisync/pkg/fileops"
)

// Program is the command name shown in help and version output.
const Program = "unisync"

// CatalogSuffix is appended to catalog file names that lack it.
const CatalogSuffix = ".usc"

// Argument prefixes accepted for compatibility with the classic syntax
// (`create cat:FILE DIR`, `applyupdate DIR update:DIR`).
const (
	catalogPrefix = "cat:"
	updatePrefix  = "update:"
)

// Command names a subcommand.
type Command string

const (
	CommandCreate         Command = "create"
	CommandDiff           Command = "diff"
	CommandCatDiff        Command = "catdiff"
	CommandSync           Command = "sync"
	CommandMakeUpdate     Command = "makeupdate"
	CommandMakeSyncUpdate Command = "makesyncupdate"
	CommandApplyUpdate    Command = "applyupdate"
)

// ErrNoCommand is returned when no subcommand was given.
var ErrNoCommand = errors.New("missing command")

// CatalogDirArgs are the positionals of create and catdiff.
type CatalogDirArgs struct {
	Catalog string `arg:"positional,required" placeholder:"cat:FILE" help:"catalog file"`
	Dir     string `arg:"positional,required" placeholder:"DIR" help:"directory to scan"`
}

// DirPairArgs are the positionals of diff and sync.
type DirPairArgs struct {
	Source string `arg:"positional,required" placeholder:"SOURCE" help:"source directory"`
	Dest   string `arg:"positional,required" placeholder:"DEST" help:"destination directory"`
}

// MakeUpdateArgs are the positionals of makeupdate.
type MakeUpdateArgs struct {
	Catalog string `arg:"positional,required" placeholder:"cat:FILE" help:"catalog of the offline tree"`
	Source  string `arg:"positional,required" placeholder:"SOURCE" help:"directory the package brings the tree up to"`
	Update  string `arg:"positional,required" placeholder:"update:DIR" help:"package directory to write"`
}

// MakeSyncUpdateArgs are the positionals of makesyncupdate.
type MakeSyncUpdateArgs struct {
	Source string `arg:"positional,required" placeholder:"SOURCE" help:"source directory"`
	Dest   string `arg:"positional,required" placeholder:"DEST" help:"destination directory the package is for"`
	Update string `arg:"positional,required" placeholder:"update:DIR" help:"package directory to write"`
}

// ApplyUpdateArgs are the positionals of applyupdate.
type ApplyUpdateArgs struct {
	Dir    string `arg:"positional,required" placeholder:"DIR" help:"directory to update"`
	Update string `arg:"positional,required" placeholder:"update:DIR" help:"package directory to apply"`
}

// Switches are accepted by every command. Verbosity (-v, -vv, -vvv) is
// counted before go-arg sees the arguments.
type Switches struct {
	Hash        string   `arg:"--hash" placeholder:"ALGO" help:"hash file contents: md5|sha2|none (default none)"`
	MTime       bool     `arg:"--mtime" help:"compare modification times of files"`
	FixTime     bool     `arg:"--fixtime" help:"sync only: fix times instead of copying files with equal hashes"`
	SkipHash    bool     `arg:"--skiphash" help:"never compare hashes, even when the catalog has them"`
	ExcludeFile []string `arg:"--exclf,separate" placeholder:"NAME" help:"exclude files with this name or glob (repeatable)"`
	ExcludeDir  []string `arg:"--excld,separate" placeholder:"NAME" help:"exclude directories with this name or glob (repeatable)"`
	ExcludePath []string `arg:"--exclp,separate" placeholder:"PATH" help:"exclude this relative path or glob (repeatable)"`
	Fast        bool     `arg:"--fast" help:"walk directories in parallel"`
	HashCache   bool     `arg:"--hash-cache" help:"reuse hashes of unchanged files across runs"`
	Interactive bool     `arg:"-i,--interactive" help:"sync only: print the procedures and ask before syncing"`
	LogLevel    string   `arg:"--log-level" placeholder:"LEVEL" help:"debug|info|warn|error (overrides -v)"`
	ConfigFile  string   `arg:"--config" placeholder:"FILE" help:"YAML defaults file"`
}

// Args is the go-arg target.
type Args struct {
	Create         *CatalogDirArgs     `arg:"subcommand:create" help:"create a catalog file from a directory"`
	Diff           *DirPairArgs        `arg:"subcommand:diff" help:"compare two directories"`
	CatDiff        *CatalogDirArgs     `arg:"subcommand:catdiff" help:"compare a directory to a catalog"`
	Sync           *DirPairArgs        `arg:"subcommand:sync" help:"synchronize a directory to a directory"`
	MakeUpdate     *MakeUpdateArgs     `arg:"subcommand:makeupdate" help:"create an update package for an offline directory"`
	MakeSyncUpdate *MakeSyncUpdateArgs `arg:"subcommand:makesyncupdate" help:"create an update package between two online directories"`
	ApplyUpdate    *ApplyUpdateArgs    `arg:"subcommand:applyupdate" help:"apply an update package to a directory"`

	Switches
}

// Description returns the program description for go-arg
func (Args) Description() string {
	return "Universal offline/online directory sync and diff utility"
}

// Version returns the version string for go-arg
func (Args) Version() string {
	return Program + " 1.0.0"
}

// Config is the resolved configuration of one run.
type Config struct {
	Command Command

	// Positionals, with prefixes stripped. Unused ones are empty.
	Catalog string
	Source  string
	Dest    string
	Update  string

	Verbosity     int
	LogLevel      string
	LogComponents map[string]string

	Hash         fileops.HashAlgorithm
	WatchTime    bool
	FixTime      bool
	SkipHash     bool
	ExcludeFiles []string
	ExcludeDirs  []string
	ExcludePaths []string

	Fast          bool
	HashCache     bool
	HashCachePath string
	Interactive   bool
}

// ParseFlags parses os.Args. Help, version and usage errors exit the process
// the way go-arg does.
func ParseFlags() (*Config, error) {
	var args Args

	parser, err := newParser(&args)
	if err != nil {
		return nil, err
	}

	verbosity, rest := SplitVerbosity(os.Args[1:])

	err = parser.Parse(rest)

	switch {
	case errors.Is(err, arg.ErrHelp):
		_ = parser.WriteHelpForSubcommand(os.Stdout, parser.SubcommandNames()...)
		os.Exit(0)
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(os.Stdout, args.Version())
		os.Exit(0)
	case err != nil:
		parser.FailSubcommand(err.Error(), parser.SubcommandNames()...)
	case parser.Subcommand() == nil:
		parser.Fail(ErrNoCommand.Error())
	}

	return Resolve(&args, verbosity)
}

// Parse parses argv (without the program name). It returns arg.ErrHelp and
// arg.ErrVersion unchanged.
func Parse(argv []string) (*Config, error) {
	var args Args

	parser, err := newParser(&args)
	if err != nil {
		return nil, err
	}

	verbosity, rest := SplitVerbosity(argv)

	if err := parser.Parse(rest); err != nil {
		return nil, err
	}

	return Resolve(&args, verbosity)
}

func newParser(args *Args) (*arg.Parser, error) {
	return arg.NewParser(arg.Config{Program: Program}, args)
}

// SplitVerbosity removes -v, -vv and -vvv style switches from argv and
// returns how many v's they carried in total.
func SplitVerbosity(argv []string) (int, []string) {
	count := 0
	rest := make([]string, 0, len(argv))

	for i, a := range argv {
		if a == "--" {
			rest = append(rest, argv[i:]...)
			break
		}

		if n := verbosityFlag(a); n > 0 {
			count += n
			continue
		}

		rest = append(rest, a)
	}

	return count, rest
}

func verbosityFlag(a string) int {
	if a == "--verbose" {
		return 1
	}

	if len(a) < 2 || a[0] != '-' || a[1] == '-' {
		return 0
	}

	vs := a[1:]
	if strings.Trim(vs, "v") != "" {
		return 0
	}

	return len(vs)
}

// Resolve merges parsed arguments with the defaults file and post-processes
// the result.
func Resolve(args *Args, verbosity int) (*Config, error) {
	cfg := &Config{Verbosity: verbosity}

	switch {
	case args.Create != nil:
		cfg.Command = CommandCreate
		cfg.Catalog, cfg.Source = args.Create.Catalog, args.Create.Dir
	case args.Diff != nil:
		cfg.Command = CommandDiff
		cfg.Source, cfg.Dest = args.Diff.Source, args.Diff.Dest
	case args.CatDiff != nil:
		cfg.Command = CommandCatDiff
		cfg.Catalog, cfg.Source = args.CatDiff.Catalog, args.CatDiff.Dir
	case args.Sync != nil:
		cfg.Command = CommandSync
		cfg.Source, cfg.Dest = args.Sync.Source, args.Sync.Dest
	case args.MakeUpdate != nil:
		cfg.Command = CommandMakeUpdate
		cfg.Catalog, cfg.Source, cfg.Update = args.MakeUpdate.Catalog, args.MakeUpdate.Source, args.MakeUpdate.Update
	case args.MakeSyncUpdate != nil:
		cfg.Command = CommandMakeSyncUpdate
		cfg.Source, cfg.Dest, cfg.Update = args.MakeSyncUpdate.Source, args.MakeSyncUpdate.Dest, args.MakeSyncUpdate.Update
	case args.ApplyUpdate != nil:
		cfg.Command = CommandApplyUpdate
		cfg.Source, cfg.Update = args.ApplyUpdate.Dir, args.ApplyUpdate.Update
	default:
		return nil, ErrNoCommand
	}

	defaults, err := loadDefaults(args.ConfigFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.merge(args.Switches, defaults); err != nil {
		return nil, err
	}

	return PostProcessConfig(cfg)
}

func loadDefaults(path string) (*File, error) {
	if path != "" {
		return LoadFile(path)
	}

	return LoadFileIfExists(DefaultFilePath())
}

// merge applies the defaults file, then the switches on top of it. Boolean
// switches can only turn an option on; exclusion lists are concatenated.
func (cfg *Config) merge(sw Switches, file *File) error {
	hash := file.Hash
	if sw.Hash != "" {
		hash = sw.Hash
	}

	if hash != "" {
		algorithm, err := fileops.ParseHashAlgorithm(hash)
		if err != nil {
			return err
		}

		cfg.Hash = algorithm
	}

	cfg.WatchTime = file.MTime || sw.MTime
	cfg.FixTime = file.FixTime || sw.FixTime
	cfg.SkipHash = file.SkipHash || sw.SkipHash
	cfg.Fast = file.Fast || sw.Fast
	cfg.HashCache = file.HashCache.Enabled || sw.HashCache
	cfg.HashCachePath = file.HashCache.Path
	cfg.Interactive = sw.Interactive

	cfg.ExcludeFiles = concat(file.Exclude.Files, sw.ExcludeFile)
	cfg.ExcludeDirs = concat(file.Exclude.Dirs, sw.ExcludeDir)
	cfg.ExcludePaths = concat(file.Exclude.Paths, sw.ExcludePath)

	level := sw.LogLevel
	if level == "" {
		level = file.LogLevel
	}

	if level == "" {
		level = logging.LevelForVerbosity(cfg.Verbosity)
	}

	if _, err := logging.ParseLevel(level); err != nil {
		return err
	}

	cfg.LogLevel = level
	cfg.LogComponents = file.LogComponents

	return nil
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)

	return append(out, b...)
}

// PostProcessConfig applies post-processing logic to a resolved config
func PostProcessConfig(cfg *Config) (*Config, error) {
	cfg.Catalog = strings.TrimPrefix(cfg.Catalog, catalogPrefix)
	if cfg.Catalog != "" && !strings.HasSuffix(cfg.Catalog, CatalogSuffix) {
		cfg.Catalog += CatalogSuffix
	}

	cfg.Update = strings.TrimPrefix(cfg.Update, updatePrefix)

	cfg.Source = trimDir(cfg.Source)
	cfg.Dest = trimDir(cfg.Dest)
	cfg.Update = trimDir(cfg.Update)

	// Fixing times needs hashes from both sides and only makes sense when
	// the destination is written.
	if cfg.Command != CommandSync || cfg.SkipHash {
		cfg.FixTime = false
	}

	if cfg.Command != CommandSync {
		cfg.Interactive = false
	}

	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func trimDir(path string) string {
	if path == "" {
		return ""
	}

	return filepath.Clean(path)
}

// ValidatePaths checks that every directory the command reads exists and
// that every path the command needs was given.
func (cfg *Config) ValidatePaths() error {
	switch cfg.Command {
	case CommandCreate, CommandCatDiff:
		return firstError(
			requirePath(cfg.Catalog, "catalog file"),
			requireDir(cfg.Source, "source directory"),
		)
	case CommandDiff:
		return firstError(
			requireDir(cfg.Source, "source directory"),
			requireDir(cfg.Dest, "destination directory"),
		)
	case CommandMakeSyncUpdate:
		return firstError(
			requireDir(cfg.Source, "source directory"),
			requireDir(cfg.Dest, "destination directory"),
			requirePath(cfg.Update, "update directory"),
		)
	case CommandSync:
		return firstError(
			requireDir(cfg.Source, "source directory"),
			requirePath(cfg.Dest, "destination directory"),
		)
	case CommandMakeUpdate:
		return firstError(
			requirePath(cfg.Catalog, "catalog file"),
			requireDir(cfg.Source, "source directory"),
			requirePath(cfg.Update, "update directory"),
		)
	case CommandApplyUpdate:
		return firstError(
			requireDir(cfg.Source, "directory"),
			requireDir(cfg.Update, "update directory"),
		)
	default:
		return fmt.Errorf("unknown command: %q", cfg.Command)
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

func requirePath(path, name string) error {
	if path == "" {
		return fmt.Errorf("%s is required", name)
	}

	return nil
}

func requireDir(path, name string) error {
	if err := requirePath(path, name); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", name, path)
	}

	if err != nil {
		return fmt.Errorf("cannot access %s: %w", name, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", name, path)
	}

	return nil
}

// Options builds the immutable build and diff options of this run.
func (cfg *Config) Options() (catalog.Options, error) {
	exclusions, err := syncengine.NewExclusions(cfg.ExcludeFiles, cfg.ExcludeDirs, cfg.ExcludePaths)
	if err != nil {
		return catalog.Options{}, err
	}

	opts := catalog.Options{
		Hash:      cfg.Hash,
		SkipHash:  cfg.SkipHash,
		WatchTime: cfg.WatchTime,
		FixTime:   cfg.FixTime,
	}

	if exclusions.Len() > 0 {
		opts.Exclude = exclusions
	}

	return opts, nil
}
