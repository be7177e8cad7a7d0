// Package instance implements InstanceAssembler: the public entry
// point that builds a tree with build.EagerBuild/LazyBuild, attaches a
// ContextRuntime and HookManager, and exposes the management surface
// (AddApi, Run, Shutdown, Describe) as methods of Instance.
//
// Go has no dynamic property access, so where a JS-style hierarchical
// API would expose `api.a.b.c` and `api.shutdown()` on the same
// object, Instance exposes tree navigation through dotted-path strings
// (Call/Get/Keys) — the same idiom spf13/viper uses for Get("a.b.c")
// — and management as ordinary Go methods, never as tree entries a
// path lookup could reach.
package instance

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/apitree/apierrs"
	"github.com/aledsdavies/apitree/build"
	"github.com/aledsdavies/apitree/ctxrt"
	"github.com/aledsdavies/apitree/sanitize"
)

// Mode selects the materialization strategy.
type Mode int

const (
	Eager Mode = iota
	Lazy
)

// ApiShape forces the bound api's own callable identity.
type ApiShape int

const (
	ShapeAuto ApiShape = iota
	ShapeFunction
	ShapeObject
)

// ScopeMerge selects the per-request overlay strategy.
type ScopeMerge int

const (
	MergeShallow ScopeMerge = iota
	MergeDeep
)

// HooksConfig mirrors the build config's `hooks: bool | string |
// {enabled, pattern, suppressErrors}` option.
type HooksConfig struct {
	Enabled        bool
	Pattern        string
	SuppressErrors bool
}

// ScopeConfig mirrors the build config's `scope: false | {merge}` option.
type ScopeConfig struct {
	Enabled bool
	Merge   ScopeMerge
}

// Config is the normalized form of every build(config) option.
// Construct it with New's functional options rather than directly.
type Config struct {
	Dir               string
	Mode              Mode
	ApiDepth          int // 0 means unlimited
	Runtime           ctxrt.Kind
	ApiShape          ApiShape
	Context           map[string]any
	Reference         map[string]any
	Sanitize          sanitize.Rules
	AllowApiOverwrite bool
	Hooks             HooksConfig
	Scope             ScopeConfig
	Debug             bool
	Source            build.Source
}

// Option configures a Config, following the common WithX functional-
// option shape used throughout this codebase's builder-style constructors.
type Option func(*Config)

func WithDir(dir string) Option { return func(c *Config) { c.Dir = dir } }

func WithMode(m Mode) Option { return func(c *Config) { c.Mode = m } }

func WithLazy() Option { return func(c *Config) { c.Mode = Lazy } }

func WithApiDepth(depth int) Option { return func(c *Config) { c.ApiDepth = depth } }

func WithRuntime(k ctxrt.Kind) Option { return func(c *Config) { c.Runtime = k } }

func WithApiShape(s ApiShape) Option { return func(c *Config) { c.ApiShape = s } }

func WithContext(ctx map[string]any) Option { return func(c *Config) { c.Context = ctx } }

func WithReference(ref map[string]any) Option { return func(c *Config) { c.Reference = ref } }

func WithSanitize(rules sanitize.Rules) Option { return func(c *Config) { c.Sanitize = rules } }

func WithAllowApiOverwrite(allow bool) Option {
	return func(c *Config) { c.AllowApiOverwrite = allow }
}

func WithHooks(cfg HooksConfig) Option { return func(c *Config) { c.Hooks = cfg } }

func WithScope(cfg ScopeConfig) Option { return func(c *Config) { c.Scope = cfg } }

func WithDebug(debug bool) Option { return func(c *Config) { c.Debug = debug } }

func WithSource(src build.Source) Option { return func(c *Config) { c.Source = src } }

// WithConfig seeds the builder from cfg wholesale, letting later
// options (CLI flags, an explicit Source) override individual fields
// on top of a config loaded from a file. It is how FromYAML's result
// gets handed to New.
func WithConfig(cfg Config) Option { return func(c *Config) { *c = cfg } }

// yamlConfig is the YAML shape FromYAML accepts: the full set of
// declarative build(config) options, not just the CLI-flag subset
// cmd/apitree's own flags cover.
type yamlConfig struct {
	Dir               string         `yaml:"dir"`
	Mode              string         `yaml:"mode"`
	ApiDepth          int            `yaml:"apiDepth"`
	Runtime           string         `yaml:"runtime"`
	ApiShape          string         `yaml:"apiShape"`
	Context           map[string]any `yaml:"context"`
	Reference         map[string]any `yaml:"reference"`
	AllowApiOverwrite *bool          `yaml:"allowApiOverwrite"`
	Debug             bool           `yaml:"debug"`
	Hooks             *yamlHooks     `yaml:"hooks"`
	Scope             *yamlScope     `yaml:"scope"`
}

type yamlHooks struct {
	Enabled        bool   `yaml:"enabled"`
	Pattern        string `yaml:"pattern"`
	SuppressErrors bool   `yaml:"suppressErrors"`
}

type yamlScope struct {
	Enabled bool   `yaml:"enabled"`
	Merge   string `yaml:"merge"`
}

// FromYAML reads path and builds a Config from it, for the CLI and for
// tests that want a declarative fixture instead of chaining functional
// options by hand. Source is never set from YAML — Go has no portable
// way to serialize a build.Source, so callers attach one with
// instance.WithSource after loading.
func FromYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, apierrs.Wrap(apierrs.ArgumentError, path, "reading YAML config", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, apierrs.Wrap(apierrs.ArgumentError, path, "parsing YAML config", err)
	}
	return NewConfig(yc.options()...)
}

func (yc yamlConfig) options() []Option {
	var opts []Option
	if yc.Dir != "" {
		opts = append(opts, WithDir(yc.Dir))
	}
	if yc.Mode == "lazy" {
		opts = append(opts, WithLazy())
	}
	if yc.ApiDepth > 0 {
		opts = append(opts, WithApiDepth(yc.ApiDepth))
	}
	if yc.Runtime == "live" {
		opts = append(opts, WithRuntime(ctxrt.LiveBinding))
	}
	switch yc.ApiShape {
	case "function":
		opts = append(opts, WithApiShape(ShapeFunction))
	case "object":
		opts = append(opts, WithApiShape(ShapeObject))
	}
	if yc.Context != nil {
		opts = append(opts, WithContext(yc.Context))
	}
	if yc.Reference != nil {
		opts = append(opts, WithReference(yc.Reference))
	}
	if yc.AllowApiOverwrite != nil {
		opts = append(opts, WithAllowApiOverwrite(*yc.AllowApiOverwrite))
	}
	if yc.Debug {
		opts = append(opts, WithDebug(true))
	}
	if yc.Hooks != nil {
		opts = append(opts, WithHooks(HooksConfig{
			Enabled:        yc.Hooks.Enabled,
			Pattern:        yc.Hooks.Pattern,
			SuppressErrors: yc.Hooks.SuppressErrors,
		}))
	}
	if yc.Scope != nil {
		merge := MergeShallow
		if yc.Scope.Merge == "deep" {
			merge = MergeDeep
		}
		opts = append(opts, WithScope(ScopeConfig{Enabled: yc.Scope.Enabled, Merge: merge}))
	}
	return opts
}

// defaultConfig holds the stock defaults: dir "api", eager, unlimited
// depth, async runtime, auto shape, overwrite allowed, hooks enabled
// over "**", scope enabled with shallow merge.
func defaultConfig() Config {
	return Config{
		Dir:               "api",
		Mode:              Eager,
		ApiDepth:          0,
		Runtime:           ctxrt.AsyncLocal,
		ApiShape:          ShapeAuto,
		AllowApiOverwrite: true,
		Hooks:             HooksConfig{Enabled: true, Pattern: "**"},
		Scope:             ScopeConfig{Enabled: true, Merge: MergeShallow},
	}
}

// NewConfig applies opts over defaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configSchema is compiled once and validates the JSON-shaped subset of
// Config — the options a caller could plausibly get wrong from a
// config file or CLI flags: dir must be non-empty, apiDepth
// non-negative, and the string enums must take one of their named
// values.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "dir": {"type": "string", "minLength": 1},
    "apiDepth": {"type": "integer", "minimum": 0},
    "mode": {"enum": ["eager", "lazy"]},
    "runtime": {"enum": ["async", "live"]},
    "apiShape": {"enum": ["auto", "function", "object"]},
    "scopeMerge": {"enum": ["shallow", "deep"]}
  },
  "required": ["dir"]
}`

var compiledConfigSchema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("config.json", strings.NewReader(configSchema)); err != nil {
		panic("instance: invalid embedded config schema: " + err.Error())
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		panic("instance: failed compiling embedded config schema: " + err.Error())
	}
	return schema
}()

// Validate checks cfg against the jsonschema document above, after
// projecting it to the plain JSON shape a user-facing config file or
// CLI flag set would actually produce. Errors surface as ArgumentError
// — "wrong option type", "invalid scope.merge", and similar.
func Validate(cfg Config) error {
	doc := map[string]any{
		"dir":      cfg.Dir,
		"apiDepth": cfg.ApiDepth,
		"mode":     modeString(cfg.Mode),
		"runtime":  runtimeString(cfg.Runtime),
		"apiShape": apiShapeString(cfg.ApiShape),
	}
	if cfg.Scope.Enabled {
		doc["scopeMerge"] = mergeString(cfg.Scope.Merge)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return apierrs.Wrap(apierrs.ArgumentError, "", "encoding config for validation", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return apierrs.Wrap(apierrs.ArgumentError, "", "decoding config for validation", err)
	}
	if err := compiledConfigSchema.Validate(v); err != nil {
		return apierrs.Wrap(apierrs.ArgumentError, "", "invalid configuration", err)
	}
	return nil
}

func modeString(m Mode) string {
	if m == Lazy {
		return "lazy"
	}
	return "eager"
}

func runtimeString(k ctxrt.Kind) string {
	if k == ctxrt.LiveBinding {
		return "live"
	}
	return "async"
}

func apiShapeString(s ApiShape) string {
	switch s {
	case ShapeFunction:
		return "function"
	case ShapeObject:
		return "object"
	default:
		return "auto"
	}
}

func mergeString(m ScopeMerge) string {
	if m == MergeDeep {
		return "deep"
	}
	return "shallow"
}
