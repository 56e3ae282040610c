// Package search builds web search URLs from the search settings section.
package search

import (
	"sort"
	"strings"

	"quick-translate/src/config"
	"quick-translate/src/translate"
)

const (
	DefaultEngine    = "baidu"
	fallbackTemplate = "https://www.baidu.com/s?wd={query}"
)

func templates(store *config.Store) map[string]string {
	if store == nil {
		return map[string]string{DefaultEngine: fallbackTemplate}
	}
	return store.StringMap(config.SectionSearch, "available_search_engines", map[string]string{DefaultEngine: fallbackTemplate})
}

// Default is the configured search engine name.
func Default(store *config.Store) string {
	if store == nil {
		return DefaultEngine
	}
	return store.String(config.SectionSearch, "default_search_engine", DefaultEngine)
}

// Engines lists the configured search engine names, sorted.
func Engines(store *config.Store) []string {
	t := templates(store)
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URL returns the search address for query on engine. An empty engine means
// the default one; an unknown engine falls back to Baidu.
func URL(store *config.Store, query, engine string) string {
	if engine == "" {
		engine = Default(store)
	}
	tmpl, ok := templates(store)[engine]
	if !ok || tmpl == "" {
		tmpl = fallbackTemplate
	}
	return strings.ReplaceAll(tmpl, "{query}", translate.Escape(query))
}

// Summary is the text shown before the user opens the result page.
func Summary(query string) string {
	return "Searching \"" + query + "\"...\n\nChoose \"Open in browser\" to see the full results."
}
