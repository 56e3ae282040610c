package translate

import (
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"quick-translate/src/config"
)

const AutoLang = "auto"

// Direction picks source and target languages for text. With auto detection
// on, text containing Han characters goes zh→en and everything else en→zh.
// Otherwise the configured defaults are used.
func Direction(store *config.Store, text string) (from, to string) {
	if store == nil || store.Bool(config.SectionTranslation, "auto_detect_language", true) {
		if containsHan(text) {
			return "zh", "en"
		}
		return "en", "zh"
	}
	from = NormalizeLang(store.String(config.SectionTranslation, "default_source_lang", AutoLang), true, AutoLang)
	to = NormalizeLang(store.String(config.SectionTranslation, "default_target_lang", "zh"), false, "zh")
	return from, to
}

// NormalizeLang reduces a BCP 47 tag to its base language ("zh-CN" → "zh").
// "auto" is accepted only when allowAuto is set. Invalid codes yield def.
func NormalizeLang(code string, allowAuto bool, def string) string {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, AutoLang) {
		if allowAuto {
			return AutoLang
		}
		log.Printf("translate: %q is not a valid target language, using %s", code, def)
		return def
	}
	tag, err := language.Parse(code)
	if err != nil {
		log.Printf("translate: invalid language code %q, using %s: %v", code, def, err)
		return def
	}
	base, _ := tag.Base()
	return base.String()
}

func containsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
