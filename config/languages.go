package config

type SupportedLanguage struct {
	Code string
	Name string
}

// Languages accepted for source/target on incoming requests. Individual
// providers may support a subset; the adapter rejects what it cannot serve.
var SupportedLanguages = []SupportedLanguage{
	{Code: "bg", Name: "Bulgarian"},
	{Code: "cs", Name: "Czech"},
	{Code: "da", Name: "Danish"},
	{Code: "de", Name: "German"},
	{Code: "el", Name: "Greek"},
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "et", Name: "Estonian"},
	{Code: "fi", Name: "Finnish"},
	{Code: "fr", Name: "French"},
	{Code: "ga", Name: "Irish"},
	{Code: "hr", Name: "Croatian"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "it", Name: "Italian"},
	{Code: "lt", Name: "Lithuanian"},
	{Code: "lv", Name: "Latvian"},
	{Code: "mt", Name: "Maltese"},
	{Code: "nl", Name: "Dutch"},
	{Code: "pl", Name: "Polish"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ro", Name: "Romanian"},
	{Code: "sk", Name: "Slovak"},
	{Code: "sl", Name: "Slovenian"},
	{Code: "sv", Name: "Swedish"},
}

func IsLanguageSupported(code string) bool {
	for _, lang := range SupportedLanguages {
		if lang.Code == code {
			return true
		}
	}
	return false
}
