// languages.go - Target languages offered to the user

package translate

import (
	"strings"

	"github.com/bosocmputer/prescription_analyzer/configs"
)

// Language is a selectable target language
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the supported targets; the first entry is the source language
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi"},
	{Code: "bn", Name: "Bengali"},
	{Code: "te", Name: "Telugu"},
	{Code: "ta", Name: "Tamil"},
	{Code: "mr", Name: "Marathi"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "kn", Name: "Kannada"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "pa", Name: "Punjabi"},
	{Code: "de", Name: "German"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ar", Name: "Arabic"},
	{Code: "ru", Name: "Russian"},
}

// NormalizeLanguage lower-cases code and reports whether it is supported
func NormalizeLanguage(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return configs.SourceLanguage, true
	}
	for _, l := range Languages {
		if l.Code == code {
			return code, true
		}
	}
	return code, false
}

// IsSource reports whether code is the source language, for which
// translation is a no-op
func IsSource(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), configs.SourceLanguage)
}
