package translate

import "sort"

// Descriptor describes one translation backend. URLTemplate and APITemplate
// use the {lang_from}, {lang_to} and {query} placeholders.
type Descriptor struct {
	Name        string
	Display     string
	URLTemplate string
	APITemplate string
}

// Direct reports whether the engine has an API the dispatcher calls itself.
func (d Descriptor) Direct() bool { return d.APITemplate != "" }

const (
	Baidu  = "baidu"
	Google = "google"
	Youdao = "youdao"
)

var builtin = map[string]Descriptor{
	Baidu: {
		Name:        Baidu,
		Display:     "Baidu Translate",
		URLTemplate: "https://fanyi.baidu.com/#{lang_from}/{lang_to}/{query}",
	},
	Google: {
		Name:        Google,
		Display:     "Google Translate",
		URLTemplate: "https://translate.google.com/?sl={lang_from}&tl={lang_to}&text={query}",
	},
	Youdao: {
		Name:        Youdao,
		Display:     "Youdao Translate",
		URLTemplate: "https://fanyi.youdao.com/",
		APITemplate: "https://fanyi.youdao.com/translate?&doctype=json&type={lang_from}2{lang_to}&i={query}",
	},
}

// Known lists the built-in engine names in sorted order.
func Known() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in descriptor for name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := builtin[name]
	return d, ok
}
