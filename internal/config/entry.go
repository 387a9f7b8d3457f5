package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"avquotes-service/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScanInterval = 3600
	MinScanInterval     = 60
	DefaultDecimals     = 2
	redacted            = "**REDACTED**"
)

var ErrInvalidEntry = errors.New("invalid entry")

// Entry is the validated provider configuration: what to poll, how often
// and how readings are displayed.
type Entry struct {
	APIKey       string
	Symbols      []domain.Symbol
	ScanInterval time.Duration
	Decimals     int
	ShowSensors  []domain.FieldID
}

// sensorList accepts either a YAML sequence or a comma separated scalar.
type sensorList []string

func (s *sensorList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*s = splitCSV(n.Value)
		return nil
	}
	var items []string
	if err := n.Decode(&items); err != nil {
		return err
	}
	*s = items
	return nil
}

type entryValues struct {
	APIKey       *string     `yaml:"api_key"`
	Symbols      *string     `yaml:"symbols"`
	ScanInterval *int        `yaml:"scan_interval"`
	Decimals     *int        `yaml:"decimals"`
	ShowSensors  *sensorList `yaml:"show_sensors"`
}

type entryFile struct {
	Data    entryValues `yaml:"data"`
	Options entryValues `yaml:"options"`
}

type rawEntry struct {
	apiKey       string
	symbols      string
	scanInterval int
	decimals     int
	showSensors  []string
}

func (r *rawEntry) apply(v entryValues) {
	if v.APIKey != nil {
		r.apiKey = *v.APIKey
	}
	if v.Symbols != nil {
		r.symbols = *v.Symbols
	}
	if v.ScanInterval != nil {
		r.scanInterval = *v.ScanInterval
	}
	if v.Decimals != nil {
		r.decimals = *v.Decimals
	}
	if v.ShowSensors != nil {
		r.showSensors = *v.ShowSensors
	}
}

// LoadEntry reads the entry file at path (optional), applies options over
// data, then AV_* environment variables, and validates the result.
func LoadEntry(path string) (Entry, error) {
	raw := rawEntry{
		scanInterval: DefaultScanInterval,
		decimals:     DefaultDecimals,
		showSensors:  fieldStrings(domain.DefaultFields),
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Entry{}, fmt.Errorf("read entry file: %w", err)
		}
		var f entryFile
		if err := yaml.Unmarshal(b, &f); err != nil {
			return Entry{}, fmt.Errorf("parse entry file: %w", err)
		}
		raw.apply(f.Data)
		raw.apply(f.Options)
	}
	if err := raw.applyEnv(); err != nil {
		return Entry{}, err
	}
	return raw.validate()
}

func (r *rawEntry) applyEnv() error {
	if v := os.Getenv("AV_API_KEY"); v != "" {
		r.apiKey = v
	}
	if v := os.Getenv("AV_SYMBOLS"); v != "" {
		r.symbols = v
	}
	if v := os.Getenv("AV_SHOW_SENSORS"); v != "" {
		r.showSensors = splitCSV(v)
	}
	for key, dst := range map[string]*int{"AV_SCAN_INTERVAL": &r.scanInterval, "AV_DECIMALS": &r.decimals} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidEntry, key, v)
		}
		*dst = n
	}
	return nil
}

func (r rawEntry) validate() (Entry, error) {
	var errs []error
	if strings.TrimSpace(r.apiKey) == "" {
		errs = append(errs, errors.New("api_key is required"))
	}
	symbols := domain.ParseSymbols(r.symbols)
	if len(symbols) == 0 {
		errs = append(errs, fmt.Errorf("symbols is required: %w", domain.ErrNoSymbols))
	}
	if r.scanInterval < MinScanInterval {
		errs = append(errs, fmt.Errorf("scan_interval must be at least %d seconds", MinScanInterval))
	}
	if r.decimals < 0 {
		errs = append(errs, errors.New("decimals must not be negative"))
	}
	fields, err := domain.ParseFieldIDs(strings.Join(r.showSensors, ","))
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Entry{}, fmt.Errorf("%w: %w", ErrInvalidEntry, errors.Join(errs...))
	}
	return Entry{
		APIKey:       strings.TrimSpace(r.apiKey),
		Symbols:      symbols,
		ScanInterval: time.Duration(r.scanInterval) * time.Second,
		Decimals:     r.decimals,
		ShowSensors:  fields,
	}, nil
}

// Redacted renders the entry for diagnostics with the API key masked.
func (e Entry) Redacted() map[string]any {
	return map[string]any{
		"api_key":       redacted,
		"symbols":       domain.JoinSymbols(e.Symbols),
		"scan_interval": int(e.ScanInterval / time.Second),
		"decimals":      e.Decimals,
		"show_sensors":  fieldStrings(e.ShowSensors),
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fieldStrings(ids []domain.FieldID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
