// Package locale formats user-facing message text from embedded catalogs.
package locale

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Catalog keys.
const (
	KeyMultipliedMessage = "multiplied_message"
	KeyTestMessage       = "test_message"
	KeyNumberedMessage   = "numbered_message"
	KeyStatusLine        = "status_line"
)

// FallbackLanguage is used when no catalog matches the requested language.
const FallbackLanguage = "en"

//go:embed locales/*.yaml
var embeddedCatalogs embed.FS

// ErrInvalidLanguage is returned for a language string that is not a BCP 47 tag.
var ErrInvalidLanguage = errors.New("invalid language tag")

// Catalog is one embedded locale file.
type Catalog struct {
	Language string            `yaml:"language"`
	Name     string            `yaml:"name"`
	Messages map[string]string `yaml:"messages"`
}

// Args is the data every catalog template is executed with.
type Args struct {
	Content string
	Count   string
}

// Localizer renders catalog templates for one language.
type Localizer struct {
	tag       language.Tag
	name      string
	printer   *message.Printer
	templates map[string]*template.Template
	logger    *slog.Logger
}

// loadCatalogs parses every embedded catalog, fallback language first.
func loadCatalogs() ([]*Catalog, error) {
	entries, err := fs.ReadDir(embeddedCatalogs, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogs: %w", err)
	}

	var catalogs []*Catalog
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := embeddedCatalogs.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", entry.Name(), err)
		}
		var c Catalog
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", entry.Name(), err)
		}
		catalogs = append(catalogs, &c)
	}

	// The matcher falls back to its first entry
	sort.SliceStable(catalogs, func(i, j int) bool {
		if catalogs[i].Language == FallbackLanguage {
			return catalogs[j].Language != FallbackLanguage
		}
		if catalogs[j].Language == FallbackLanguage {
			return false
		}
		return catalogs[i].Language < catalogs[j].Language
	})
	return catalogs, nil
}

// Languages returns the languages with an embedded catalog.
func Languages() []string {
	catalogs, err := loadCatalogs()
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(catalogs))
	for _, c := range catalogs {
		langs = append(langs, c.Language)
	}
	return langs
}

// Load returns a Localizer for the closest catalog to lang. A language with
// no close catalog falls back to English with a warning.
func Load(lang string, logger *slog.Logger) (*Localizer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	requested := language.Make(FallbackLanguage)
	if strings.TrimSpace(lang) != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidLanguage, lang, err)
		}
		requested = tag
	}

	catalogs, err := loadCatalogs()
	if err != nil {
		return nil, err
	}
	if len(catalogs) == 0 {
		return nil, errors.New("no catalogs embedded")
	}

	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = language.Make(c.Language)
	}

	_, idx, confidence := language.NewMatcher(tags).Match(requested)
	if confidence == language.No {
		logger.Warn("no catalog for language, using fallback", "language", lang, "fallback", FallbackLanguage)
		idx = 0
	}
	catalog := catalogs[idx]

	l := &Localizer{
		tag:       tags[idx],
		name:      catalog.Name,
		printer:   message.NewPrinter(tags[idx]),
		templates: make(map[string]*template.Template, len(catalog.Messages)),
		logger:    logger,
	}
	for key, text := range catalog.Messages {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s message %q: %w", catalog.Language, key, err)
		}
		l.templates[key] = tmpl
	}

	logger.Debug("loaded catalog", "requested", requested.String(), "language", catalog.Language)
	return l, nil
}

// Tag returns the language of the loaded catalog.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Name returns the catalog's display name.
func (l *Localizer) Name() string {
	return l.name
}

// FormatCount renders n with the language's digit grouping.
func (l *Localizer) FormatCount(n int) string {
	return l.printer.Sprintf("%d", n)
}

// Format executes the catalog template for key. A missing or failing
// template is logged and yields the content unchanged.
func (l *Localizer) Format(key, content string, count int) string {
	tmpl, ok := l.templates[key]
	if !ok {
		l.logger.Warn("missing catalog message", "key", key, "language", l.tag.String())
		return content
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, Args{Content: content, Count: l.FormatCount(count)}); err != nil {
		l.logger.Warn("failed to format catalog message", "key", key, "error", err)
		return content
	}
	return buf.String()
}

// FormatMultipliedMessage decorates content with the number of merged
// occurrences.
func (l *Localizer) FormatMultipliedMessage(content string, multiplier int) string {
	return l.Format(KeyMultipliedMessage, content, multiplier)
}
