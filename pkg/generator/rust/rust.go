// Package rust renders the decoded description as Rust client source: type
// declarations, flat HTTP methods and the scoped fluent client.
package rust

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/overrides"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

//go:embed templates/*
var templatesFS embed.FS

// ErrUnsupportedBody is returned for request bodies without a usable representation
var ErrUnsupportedBody = errors.New("request body has no supported content type")

// Options configures the emitters
type Options struct {
	Target config.Target
	// Overrides is consulted for every parameter, result and field type; nil means none
	Overrides *overrides.Store
	// Filter drops tag groups before emission; nil keeps all
	Filter *tags.Filter
	Logger *slog.Logger
}

// base holds what every emitter shares
type base struct {
	target    config.Target
	overrides *overrides.Store
	filter    *tags.Filter
	logger    *slog.Logger
	tmpl      *template.Template
}

func newBase(opts Options) base {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Overrides
	if store == nil {
		store = overrides.New(logger)
	}
	return base{
		target:    opts.Target,
		overrides: store,
		filter:    opts.Filter,
		logger:    logger,
		tmpl:      parseTemplates(),
	}
}

func parseTemplates() *template.Template {
	return template.Must(template.New("rust").Funcs(sprig.TxtFuncMap()).ParseFS(templatesFS, "templates/*.gotmpl"))
}

// render executes the named template into w
func (b *base) render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// groups partitions spec, applies the tag filter and reports how many paths
// are not emitted
func (b *base) groups(spec *ir.Spec, scope tags.Scope) ([]tags.Group, int, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}
	all, left := tags.Partition(spec)
	selected := scope.Select(b.filter.Apply(all))

	emitted := 0
	for _, g := range selected {
		emitted += len(g.Paths)
	}
	rest := len(spec.Paths) - emitted
	if rest > 0 {
		level := slog.LevelWarn
		if scope.Scoped() || len(left) == 0 {
			// narrowing by scope or filter is intentional
			level = slog.LevelInfo
		}
		b.logger.Log(context.Background(), level, "paths left unprocessed",
			"count", rest, "mixed", len(left), "scoped", scope.Scoped())
	}
	return selected, rest, nil
}

// docComment renders lines as /// comments indented by indent spaces
func docComment(indent int, doc []string) string {
	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	for i, l := range doc {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pad)
		if l == "" {
			b.WriteString("///")
		} else {
			b.WriteString("/// ")
			b.WriteString(l)
		}
	}
	return b.String()
}

// lines is a small builder for indented Rust source
type lines []string

func (l *lines) add(indent int, format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	*l = append(*l, strings.Repeat(" ", indent)+s)
}

func (l *lines) docs(indent int, doc []string) {
	if len(doc) == 0 {
		return
	}
	*l = append(*l, docComment(indent, doc))
}

func (l lines) String() string {
	return strings.Join(l, "\n")
}
