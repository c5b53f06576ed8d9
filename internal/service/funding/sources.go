// Package funding crawls configured sources for funding opportunities,
// extracts them with a language model and stores them deduplicated.
package funding

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindPage   = "page"
	KindSearch = "search"
)

// queryPlaceholder is replaced by each escaped query of a search source.
const queryPlaceholder = "{query}"

// Source is one entry of the sources file.
type Source struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Kind    string   `yaml:"kind"`
	Queries []string `yaml:"queries"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads and validates a YAML sources file.
func LoadSources(path string) ([]Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read funding sources: %w", err)
	}
	return ParseSources(raw)
}

// ParseSources decodes and validates sources YAML.
func ParseSources(raw []byte) ([]Source, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse funding sources: %w", err)
	}
	seen := map[string]bool{}
	for i := range file.Sources {
		src := &file.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		if src.Kind == "" {
			src.Kind = KindPage
		}
		if err := src.validate(); err != nil {
			return nil, fmt.Errorf("funding source %d: %w", i+1, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("funding source %q: duplicate name", src.Name)
		}
		seen[src.Name] = true
	}
	return file.Sources, nil
}

func (s Source) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	probe := strings.ReplaceAll(s.URL, queryPlaceholder, "x")
	u, err := url.Parse(probe)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: url must be absolute http(s)", s.Name)
	}
	switch s.Kind {
	case KindPage:
	case KindSearch:
		if !strings.Contains(s.URL, queryPlaceholder) {
			return fmt.Errorf("%s: search url must contain %s", s.Name, queryPlaceholder)
		}
		if len(s.Queries) == 0 {
			return fmt.Errorf("%s: search source needs queries", s.Name)
		}
	default:
		return fmt.Errorf("%s: kind must be page or search", s.Name)
	}
	return nil
}

// PageURLs expands a source into the URLs to fetch.
func (s Source) PageURLs() []string {
	if s.Kind != KindSearch {
		return []string{s.URL}
	}
	out := make([]string, 0, len(s.Queries))
	for _, q := range s.Queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, strings.ReplaceAll(s.URL, queryPlaceholder, url.QueryEscape(q)))
	}
	return out
}
