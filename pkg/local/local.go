package local

import (
	"fmt"
	"io"
	"strings"
)

type Language string

const (
	Eng = Language("en")
	Rus = Language("ru")
)

// ParseLanguage falls back to English for anything it does not know.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ru", "rus", "russian":
		return Rus
	default:
		return Eng
	}
}

type Localization struct {
	language Language
	text     string
}

type TextSet struct {
	Default          string
	translationsText map[Language]string
}

func NewTrans(language Language, text string) Localization {
	return Localization{
		language: language,
		text:     text,
	}
}

func NewSet(defaultText string, localizations ...Localization) TextSet {
	set := TextSet{
		Default:          defaultText,
		translationsText: make(map[Language]string),
	}
	for _, localization := range localizations {
		set.translationsText[localization.language] = localization.text
	}
	return set
}

func (l TextSet) Text(language Language) string {
	if text, ok := l.translationsText[language]; ok {
		return text
	}
	return l.Default
}

func (l TextSet) Format(language Language, a ...any) string {
	return fmt.Sprintf(l.Text(language), a...)
}

// Printer writes text sets in one language.
type Printer struct {
	w        io.Writer
	language Language
}

func NewPrinter(w io.Writer, language Language) *Printer {
	return &Printer{w: w, language: language}
}

func (p *Printer) Language() Language {
	return p.language
}

func (p *Printer) SetLanguage(language Language) {
	p.language = language
}

func (p *Printer) Println(set TextSet, a ...any) {
	_, _ = fmt.Fprintln(p.w, set.Format(p.language, a...))
}

func (p *Printer) Print(text string) {
	_, _ = io.WriteString(p.w, text)
}
