// Package content serves the public site configuration and page bodies.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"recipebox/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

//go:embed site.yml
var defaultSite []byte

// NavItem is one entry of the site navigation.
type NavItem struct {
	Href  string `yaml:"href" json:"href"`
	Label string `yaml:"label" json:"label"`
}

// PageContent is the raw HTML body of a content page.
type PageContent struct {
	Content string `yaml:"content" json:"content"`
}

// Site is the public site configuration.
type Site struct {
	Title        string                 `yaml:"title" json:"title"`
	Description  string                 `yaml:"description" json:"description"`
	NavItems     []NavItem              `yaml:"navItems" json:"navItems"`
	PagesContent map[string]PageContent `yaml:"pagesContent" json:"-"`

	policy *bluemonday.Policy
}

// Page is a rendered content page.
type Page struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Load reads the site configuration from path, or the embedded default when path is empty.
func Load(path string) (*Site, error) {
	raw := defaultSite
	if path != "" {
		// #nosec G304: path comes from operator configuration
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read site content: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes a YAML site configuration.
func Parse(raw []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse site content: %w", err)
	}
	if strings.TrimSpace(s.Title) == "" {
		return nil, fmt.Errorf("parse site content: title is required")
	}
	if s.PagesContent == nil {
		s.PagesContent = map[string]PageContent{}
	}
	s.policy = bluemonday.UGCPolicy()
	return &s, nil
}

// TitleFor returns the navigation label matching path, falling back to the site title.
func (s *Site) TitleFor(path string) string {
	for _, item := range s.NavItems {
		if item.Href == path {
			return item.Label
		}
	}
	return s.Title
}

// Page renders the content page at path with its HTML sanitized.
func (s *Site) Page(path string) (*Page, error) {
	pc, ok := s.PagesContent[path]
	if !ok {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "Page not found"}
	}
	return &Page{
		Path:  path,
		Title: s.TitleFor(path),
		HTML:  s.policy.Sanitize(pc.Content),
	}, nil
}

// Paths lists the configured content page paths.
func (s *Site) Paths() []string {
	out := make([]string, 0, len(s.PagesContent))
	for p := range s.PagesContent {
		out = append(out, p)
	}
	return out
}
