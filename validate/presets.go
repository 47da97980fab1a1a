package validate

import (
	"regexp"
	"sync"

	"github.com/formtide/survey-runtime/model"
)

// Named presets the authoring console can attach to a question instead of a
// raw pattern. Kept in sync with the admin question editor.
var presetPatterns = map[string]string{
	"phone-international": `^\+?[1-9]\d{1,14}$`,
	"phone-us":            `^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`,
	"phone-uk":            `^(\+44|0)\d{10,11}$`,
	"phone-eu":            `^\+?[0-9\s-]{8,20}$`,
	"phone-digits-only":   `^[0-9]{7,15}$`,
	"phone-flexible":      `^[+]?[(]?[0-9]{1,4}[)]?[-\s./0-9]*$`,
	"email":               `^[^\s@]+@[^\s@]+\.[^\s@]+$`,
	"url-standard":        `^https?://[\w\-]+(\.[\w\-]+)+[/\w\-.,@?^=%&:~+#]*$`,
	"url-flexible":        `^(https?://)?([\w\-]+\.)+[\w\-]+(/[\w\-.,@?^=%&:~+#]*)?$`,
	"number-integer":      `^-?\d+$`,
	"number-decimal":      `^-?\d+([.,]\d+)?$`,
}

// Built-in fallbacks when a question carries neither an explicit pattern nor
// a preset.
var defaultPatterns = map[model.QuestionType]string{
	model.Email: presetPatterns["email"],
	model.Phone: presetPatterns["phone-flexible"],
	model.Url:   presetPatterns["url-standard"],
}

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

// patternFor resolves the pattern for a question: explicit pattern first,
// then named preset, then the type's built-in default.
func patternFor(q model.Question) string {
	if q.Settings != nil {
		if q.Settings.ValidationPattern != "" {
			return q.Settings.ValidationPattern
		}
		if p, ok := presetPatterns[q.Settings.ValidationPreset]; ok {
			return p
		}
	}
	return defaultPatterns[q.Type]
}

// matchPattern reports whether the text satisfies the pattern. A pattern
// that fails to compile is treated as no constraint: a misconfigured survey
// must never lock the respondent out.
func matchPattern(pattern, text string) bool {
	if pattern == "" {
		return true
	}

	patternMu.RLock()
	re, ok := patternCache[pattern]
	patternMu.RUnlock()

	if !ok {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return true
		}
		patternMu.Lock()
		patternCache[pattern] = re
		patternMu.Unlock()
	}
	return re.MatchString(text)
}
