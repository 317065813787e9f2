package translate

// Language is one supported output language. Code is the translator's
// language code; Name is the native display name.
type Language struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	Locale      string `json:"locale"`
}

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool {
	switch l.Code {
	case "ar", "fa", "he", "ur":
		return true
	}
	return false
}

// DefaultLanguageCode is used when a code is empty or unknown.
const DefaultLanguageCode = "en"

var languages = []Language{
	{"af", "Afrikaans", "Afrikaans", "af"},
	{"sq", "Shqip", "Albanian", "sq"},
	{"am", "አማርኛ", "Amharic", "am"},
	{"ar", "العربية", "Arabic", "ar"},
	{"hy", "Հայերեն", "Armenian", "hy"},
	{"as", "অসমীয়া", "Assamese", "as"},
	{"az", "Azərbaycan", "Azerbaijani", "az"},
	{"bn", "বাংলা", "Bengali", "bn"},
	{"bs", "Bosanski", "Bosnian", "bs"},
	{"bg", "Български", "Bulgarian", "bg"},
	{"zh-Hans", "中文", "Chinese (Simplified)", "zh"},
	{"zh-Hant", "中文繁體", "Chinese (Traditional)", "zh-TW"},
	{"hr", "Hrvatski", "Croatian", "hr"},
	{"cs", "Čeština", "Czech", "cs"},
	{"da", "Dansk", "Danish", "da"},
	{"prs", "دری", "Dari", "prs"},
	{"nl", "Nederlands", "Dutch", "nl"},
	{"en", "English", "English", "en"},
	{"et", "Eesti", "Estonian", "et"},
	{"fi", "Suomi", "Finnish", "fi"},
	{"fr", "Français", "French", "fr"},
	{"ka", "ქართული", "Georgian", "ka"},
	{"de", "Deutsch", "German", "de"},
	{"el", "Ελληνικά", "Greek", "el"},
	{"gu", "ગુજરાતી", "Gujarati", "gu"},
	{"ht", "Kreyòl Ayisyen", "Haitian Creole", "ht"},
	{"he", "עברית", "Hebrew", "he"},
	{"hi", "हिंदी", "Hindi", "hi"},
	{"hu", "Magyar", "Hungarian", "hu"},
	{"is", "Íslenska", "Icelandic", "is"},
	{"id", "Bahasa Indonesia", "Indonesian", "id"},
	{"ga", "Gaeilge", "Irish", "ga"},
	{"it", "Italiano", "Italian", "it"},
	{"ja", "日本語", "Japanese", "ja"},
	{"kn", "ಕನ್ನಡ", "Kannada", "kn"},
	{"kk", "Қазақ", "Kazakh", "kk"},
	{"ko", "한국어", "Korean", "ko"},
	{"lv", "Latviešu", "Latvian", "lv"},
	{"lt", "Lietuvių", "Lithuanian", "lt"},
	{"ms", "Bahasa Melayu", "Malay", "ms"},
	{"ml", "മലയാളം", "Malayalam", "ml"},
	{"mt", "Malti", "Maltese", "mt"},
	{"mr", "मराठी", "Marathi", "mr"},
	{"nb", "Norsk", "Norwegian", "nb"},
	{"fa", "فارسی", "Persian", "fa"},
	{"pl", "Polski", "Polish", "pl"},
	{"pt", "Português", "Portuguese", "pt"},
	{"ro", "Română", "Romanian", "ro"},
	{"ru", "Русский", "Russian", "ru"},
	{"sr", "Српски", "Serbian", "sr"},
	{"sk", "Slovenčina", "Slovak", "sk"},
	{"sl", "Slovenščina", "Slovenian", "sl"},
	{"es", "Español", "Spanish", "es"},
	{"sw", "Kiswahili", "Swahili", "sw"},
	{"sv", "Svenska", "Swedish", "sv"},
	{"ta", "தமிழ்", "Tamil", "ta"},
	{"te", "తెలుగు", "Telugu", "te"},
	{"th", "ไทย", "Thai", "th"},
	{"tr", "Türkçe", "Turkish", "tr"},
	{"uk", "Українська", "Ukrainian", "uk"},
	{"ur", "اردو", "Urdu", "ur"},
	{"vi", "Tiếng Việt", "Vietnamese", "vi"},
	{"cy", "Cymraeg", "Welsh", "cy"},
}

// Languages returns a copy of the supported language table.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LanguageByCode looks up a language and falls back to English.
func LanguageByCode(code string) Language {
	if l, ok := lookup(code); ok {
		return l
	}
	l, _ := lookup(DefaultLanguageCode)
	return l
}

// IsSupported reports whether code is in the table.
func IsSupported(code string) bool {
	_, ok := lookup(code)
	return ok
}

func lookup(code string) (Language, bool) {
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}
