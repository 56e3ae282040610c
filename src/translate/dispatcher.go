// Package translate maps engine names to browser URLs and, for engines with a
// public endpoint, fetches the translation directly.
package translate

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"quick-translate/src/config"
	"quick-translate/src/logutil"
)

const (
	NoTextMessage        = "No text selected or text is empty"
	NotConfiguredMessage = "Translation engine not configured"
	PendingMessage       = "Translating...\n\nPlease wait, or choose \"Open in browser\" to see the full translation."
)

const defaultTimeout = 10 * time.Second

type Option func(*Dispatcher)

// WithHTTPClient replaces the resty client used for direct API calls.
func WithHTTPClient(c *resty.Client) Option {
	return func(d *Dispatcher) { d.http = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.http.SetTimeout(timeout)
		}
	}
}

// WithAPITemplate overrides the direct API endpoint of a built-in engine.
func WithAPITemplate(engine, template string) Option {
	return func(d *Dispatcher) {
		if desc, ok := d.engines[engine]; ok {
			desc.APITemplate = template
			d.engines[engine] = desc
		}
	}
}

// Dispatcher holds the active engine. The engine table is fixed at construction.
type Dispatcher struct {
	mu      sync.RWMutex
	store   *config.Store
	engines map[string]Descriptor
	current string
	http    *resty.Client
}

// New reads translation.default_engine from store. store may be nil, in which
// case the choice is not persisted.
func New(store *config.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		engines: make(map[string]Descriptor, len(builtin)),
		current: Baidu,
		http:    resty.New().SetTimeout(defaultTimeout),
	}
	for name, desc := range builtin {
		d.engines[name] = desc
	}
	if store != nil {
		d.current = store.String(config.SectionTranslation, "default_engine", Baidu)
	}
	if _, ok := d.engines[d.current]; !ok {
		log.Printf("translate: configured engine %q is unknown", d.current)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the active engine name.
func (d *Dispatcher) Engine() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Descriptor returns the active engine's descriptor.
func (d *Dispatcher) Descriptor() (Descriptor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.engines[d.current]
	return desc, ok
}

// Engines lists translation.available_engines restricted to engines the
// dispatcher knows, falling back to Known.
func (d *Dispatcher) Engines() []string {
	if d.store == nil {
		return Known()
	}
	var out []string
	for _, name := range d.store.Strings(config.SectionTranslation, "available_engines", nil) {
		if _, ok := d.engines[name]; ok {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return Known()
	}
	return out
}

// Use switches to a known engine for this dispatcher only.
func (d *Dispatcher) Use(name string) bool {
	if _, ok := d.engines[name]; !ok {
		log.Printf("translate: refusing unknown engine %q", name)
		return false
	}
	d.mu.Lock()
	d.current = name
	d.mu.Unlock()
	return true
}

// SetEngine switches to a known engine and persists the choice. Unknown names
// return false and change nothing.
func (d *Dispatcher) SetEngine(name string) bool {
	if !d.Use(name) {
		return false
	}
	if d.store != nil && !d.store.Set(config.SectionTranslation, "default_engine", name) {
		log.Printf("translate: engine %s active but not saved", name)
	}
	return true
}

// Translate never fails: problems come back as readable text. Only engines
// with a direct API touch the network, once, without retry.
func (d *Dispatcher) Translate(ctx context.Context, text, from, to string) string {
	if strings.TrimSpace(text) == "" {
		return NoTextMessage
	}
	desc, ok := d.Descriptor()
	if !ok {
		return NotConfiguredMessage
	}
	if desc.Direct() {
		result, err := d.fetch(ctx, desc, text, from, to)
		if err != nil {
			log.Printf("translate: %s request failed: %v", desc.Name, err)
			return fmt.Sprintf("Translation error: %v\n\nChoose \"Open in browser\" to view the translation.", err)
		}
		if result != "" {
			return result
		}
		return PendingMessage
	}
	return placeholder(desc, text, from)
}

func placeholder(desc Descriptor, text, from string) string {
	kind := "Chinese translation result"
	if from == "zh" {
		kind = "English translation result"
	}
	return fmt.Sprintf("[%s] %s → %s", desc.Display, text, kind)
}

// fetch returns "" when the response carries no translation list.
func (d *Dispatcher) fetch(ctx context.Context, desc Descriptor, text, from, to string) (string, error) {
	endpoint := expand(desc.APITemplate, text, from, to)
	log.Printf("translate: GET %s for %q", desc.Name, logutil.Sanitize(text))

	resp, err := d.http.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s: %s", desc.Name, resp.Status())
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%s: response is not JSON", desc.Name)
	}
	segments := gjson.GetBytes(body, "translateResult")
	if !segments.Exists() || len(segments.Array()) == 0 {
		return "", nil
	}
	tgt := gjson.GetBytes(body, "translateResult.0.0.tgt")
	if !tgt.Exists() {
		return "", fmt.Errorf("%s: unexpected response shape", desc.Name)
	}
	return tgt.String(), nil
}

// URL builds the browser address for text on the active engine, or "" when
// the engine is unknown.
func (d *Dispatcher) URL(text, from, to string) string {
	desc, ok := d.Descriptor()
	if !ok {
		return ""
	}
	return expand(desc.URLTemplate, text, from, to)
}

func expand(template, text, from, to string) string {
	return strings.NewReplacer(
		"{lang_from}", from,
		"{lang_to}", to,
		"{query}", Escape(text),
	).Replace(template)
}

var unescapeSafe = strings.NewReplacer("+", "%20", "%2F", "/", "%7E", "~")

// Escape percent-encodes text for a URL path, fragment or query value.
// Spaces become %20; "/" and "~" stay literal.
func Escape(text string) string {
	return unescapeSafe.Replace(url.QueryEscape(text))
}
