package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Publish targets understood by the store. TargetDraft is local: the upload
// happens but the draft is left unpublished.
const (
	TargetDefault        = "default"
	TargetTrustedTesters = "trustedTesters"
	TargetDraft          = "draft"
)

// ErrInvalidOptions is wrapped by every parse and validation failure.
var ErrInvalidOptions = errors.New("invalid options")

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

type Options struct {
	ExtensionID  string `yaml:"extensionId,omitempty" toml:"extensionId,omitempty"`
	ClientID     string `yaml:"clientId,omitempty" toml:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty" toml:"clientSecret,omitempty"`
	RefreshToken string `yaml:"refreshToken,omitempty" toml:"refreshToken,omitempty"`

	// Path overrides the bundler's output directory.
	Path   string `yaml:"path,omitempty" toml:"path,omitempty"`
	Target string `yaml:"target,omitempty" toml:"target,omitempty"`

	KeepBundleOnSuccess bool `yaml:"keepBundleOnSuccess" toml:"keepBundleOnSuccess"`
	Silent              bool `yaml:"silent" toml:"silent"`
	Disabled            bool `yaml:"disabled" toml:"disabled"`
	ThrowOnFailure      bool `yaml:"throwOnFailure" toml:"throwOnFailure"`

	// Timeout bounds each network call. Zero means no bound.
	Timeout time.Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

func DefaultOptions() Options {
	return Options{Target: TargetDefault}
}

// PublishTarget returns the configured target or TargetDefault.
func (o Options) PublishTarget() string {
	if o.Target == "" {
		return TargetDefault
	}
	return o.Target
}

// IsDraft reports whether publishing should stop after the upload.
func (o Options) IsDraft() bool {
	return o.PublishTarget() == TargetDraft
}

func (o Options) Validate() error {
	switch o.PublishTarget() {
	case TargetDefault, TargetTrustedTesters, TargetDraft:
	default:
		return fmt.Errorf("%w: unknown target %q (want %s, %s or %s)",
			ErrInvalidOptions, o.Target, TargetDefault, TargetTrustedTesters, TargetDraft)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Parse decodes options strictly: unknown keys and mistyped values fail.
func Parse(data []byte, format Format) (Options, error) {
	opts := DefaultOptions()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		if err := checkYAMLTags(data); err != nil {
			return Options{}, err
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &opts)
		if err != nil {
			return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Options{}, fmt.Errorf("%w: unknown keys: %s", ErrInvalidOptions, strings.Join(keys, ", "))
		}
	default:
		return Options{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidOptions, format)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// yamlTags is the resolved tag each key's value must carry. yaml.v3 stores
// any plain scalar in a string field and reads "yes"/"on" into bools, so the
// decoder alone lets `extensionId: 12345` or `silent: yes` through.
var yamlTags = map[string]string{
	"extensionId":         "!!str",
	"clientId":            "!!str",
	"clientSecret":        "!!str",
	"refreshToken":        "!!str",
	"path":                "!!str",
	"target":              "!!str",
	"timeout":             "!!str",
	"keepBundleOnSuccess": "!!bool",
	"silent":              "!!bool",
	"disabled":            "!!bool",
	"throwOnFailure":      "!!bool",
}

// checkYAMLTags rejects top-level values whose tag does not match the
// field type. A null value leaves the field at its default.
func checkYAMLTags(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		want, ok := yamlTags[key.Value]
		if !ok {
			continue
		}
		got := value.ShortTag()
		if got == "!!null" {
			continue
		}
		if value.Kind != yaml.ScalarNode || got != want {
			return fmt.Errorf("%w: line %d: %s must be %s, got %s %q",
				ErrInvalidOptions, value.Line, key.Value, want, got, value.Value)
		}
	}
	return nil
}

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: unsupported config file %s", ErrInvalidOptions, path)
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".extpublish", "config.yaml")
}

// Load reads options from path. A missing file yields the defaults.
func Load(path string) (Options, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Options{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultOptions(), nil // Use defaults
		}
		return Options{}, err
	}

	return Parse(data, format)
}

func (o Options) Save(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		err = toml.NewEncoder(&buf).Encode(o)
	default:
		err = yaml.NewEncoder(&buf).Encode(o)
	}
	if err != nil {
		return err
	}

	// Credentials may be stored here
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return unexpanded if home unavailable
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
