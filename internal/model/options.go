// Package model defines data structures for the email composer.
package model

// Tone is the voice the generated email is written in.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneFriendly     Tone = "Friendly"
	ToneCasual       Tone = "Casual"
	TonePersuasive   Tone = "Persuasive"
	ToneSympathetic  Tone = "Sympathetic"
)

// Length is the requested size of the email body.
type Length string

const (
	LengthShort    Length = "Short"
	LengthMedium   Length = "Medium"
	LengthDetailed Length = "Detailed"
)

// Style is the writing style of the email.
type Style string

const (
	StyleDirect       Style = "Direct"
	StyleDescriptive  Style = "Descriptive"
	StyleStorytelling Style = "Storytelling"
	StyleTechnical    Style = "Technical"
)

// Language is the language the email is composed in.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageSpanish Language = "Spanish"
	LanguageFrench  Language = "French"
	LanguageGerman  Language = "German"
	LanguageChinese Language = "Chinese"
)

// OpenAI model identifiers offered for selection.
const (
	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"
	ModelO1Mini    = "o1-mini"
	ModelO3Mini    = "o3-mini"
)

// DefaultModel is selected when a session starts.
const DefaultModel = ModelGPT4oMini

// Tones returns the legal tones in display order.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneFriendly, ToneCasual, TonePersuasive, ToneSympathetic}
}

// Lengths returns the legal lengths in display order.
func Lengths() []Length {
	return []Length{LengthShort, LengthMedium, LengthDetailed}
}

// Styles returns the legal writing styles in display order.
func Styles() []Style {
	return []Style{StyleDirect, StyleDescriptive, StyleStorytelling, StyleTechnical}
}

// Languages returns the legal languages in display order.
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageChinese}
}

// Models returns the OpenAI model identifiers in display order.
func Models() []string {
	return []string{ModelGPT4o, ModelGPT4oMini, ModelO1Mini, ModelO3Mini}
}

// Options is the full set of enumerated choices, served to form renderers.
type Options struct {
	Tones     []Tone     `json:"tones"`
	Lengths   []Length   `json:"lengths"`
	Styles    []Style    `json:"styles"`
	Languages []Language `json:"languages"`
	Models    []string   `json:"models"`
	Presets   []string   `json:"presets"`
}

// AllOptions collects the option sets. models is the list offered by the
// configured provider.
func AllOptions(models []string) Options {
	presets := Presets()
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}

	return Options{
		Tones:     Tones(),
		Lengths:   Lengths(),
		Styles:    Styles(),
		Languages: Languages(),
		Models:    models,
		Presets:   names,
	}
}
