package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidModel is returned when a phrasebook file cannot be used.
var ErrInvalidModel = errors.New("translate: invalid phrasebook model")

// Phrasebook is a dictionary translation model loaded from YAML:
//
//	source: en
//	target: fr
//	entries:
//	  hello: bonjour
//	  thank you: merci
//
// Lookups are case-insensitive and prefer the longest matching phrase.
// Words without an entry are copied unchanged.
type Phrasebook struct {
	source    string
	target    string
	entries   map[string]string
	maxPhrase int
}

type phrasebookFile struct {
	Source  string            `yaml:"source"`
	Target  string            `yaml:"target"`
	Entries map[string]string `yaml:"entries"`
}

// LoadPhrasebook reads a phrasebook for the source→target pair. A file that
// declares languages must match the requested pair; "auto" accepts any
// declared source.
func LoadPhrasebook(path, source, target string) (*Phrasebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return ParsePhrasebook(data, source, target)
}

// ParsePhrasebook decodes phrasebook YAML.
func ParsePhrasebook(data []byte, source, target string) (*Phrasebook, error) {
	var file phrasebookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	declaredSource := strings.TrimSpace(file.Source)
	declaredTarget := strings.TrimSpace(file.Target)
	if declaredSource != "" && !strings.EqualFold(source, "auto") && !strings.EqualFold(declaredSource, source) {
		return nil, fmt.Errorf("%w: model translates from %q, requested %q", ErrInvalidModel, declaredSource, source)
	}
	if declaredTarget != "" && !strings.EqualFold(declaredTarget, target) {
		return nil, fmt.Errorf("%w: model translates to %q, requested %q", ErrInvalidModel, declaredTarget, target)
	}
	if declaredSource == "" {
		declaredSource = source
	}

	book := &Phrasebook{
		source:  strings.ToLower(declaredSource),
		target:  strings.ToLower(target),
		entries: make(map[string]string, len(file.Entries)),
	}
	for phrase, translation := range file.Entries {
		key := normalisePhrase(phrase)
		if key == "" {
			continue
		}
		book.entries[key] = strings.TrimSpace(translation)
		if n := len(strings.Fields(key)); n > book.maxPhrase {
			book.maxPhrase = n
		}
	}
	if len(book.entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidModel)
	}
	return book, nil
}

// Source returns the language the phrasebook translates from.
func (p *Phrasebook) Source() string { return p.source }

// Target returns the language the phrasebook translates to.
func (p *Phrasebook) Target() string { return p.target }

// Close implements Translator.
func (p *Phrasebook) Close() error { return nil }

// Translate implements Translator. Text in a language other than the
// phrasebook source is returned unchanged with zero coverage.
func (p *Phrasebook) Translate(ctx context.Context, text, sourceLang string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if sourceLang != "" && !strings.EqualFold(sourceLang, "auto") && !strings.EqualFold(sourceLang, p.source) {
		return Result{Text: text}, nil
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{Text: text}, nil
	}

	out := make([]string, 0, len(tokens))
	covered := 0
	for i := 0; i < len(tokens); {
		n, translation := p.longestMatch(tokens[i:])
		if n == 0 {
			out = append(out, tokens[i].raw)
			i++
			continue
		}
		first, last := tokens[i], tokens[i+n-1]
		if startsUpper(first.core) {
			translation = capitalise(translation)
		}
		out = append(out, first.prefix+translation+last.suffix)
		covered += n
		i += n
	}

	return Result{
		Text:     strings.Join(out, " "),
		Coverage: float32(covered) / float32(len(tokens)),
	}, nil
}

func (p *Phrasebook) longestMatch(tokens []token) (int, string) {
	limit := p.maxPhrase
	if limit > len(tokens) {
		limit = len(tokens)
	}
	for n := limit; n > 0; n-- {
		if !joinable(tokens[:n]) {
			continue
		}
		parts := make([]string, n)
		for i := 0; i < n; i++ {
			parts[i] = strings.ToLower(tokens[i].core)
		}
		if translation, ok := p.entries[strings.Join(parts, " ")]; ok {
			return n, translation
		}
	}
	return 0, ""
}

// joinable reports whether tokens can form one phrase: punctuation is only
// allowed before the first word and after the last.
func joinable(tokens []token) bool {
	for i, t := range tokens {
		if t.core == "" {
			return false
		}
		if i > 0 && t.prefix != "" {
			return false
		}
		if i < len(tokens)-1 && t.suffix != "" {
			return false
		}
	}
	return true
}

type token struct {
	raw    string
	prefix string
	core   string
	suffix string
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	tokens := make([]token, 0, len(fields))
	for _, field := range fields {
		start := strings.IndexFunc(field, isWordRune)
		if start < 0 {
			tokens = append(tokens, token{raw: field, prefix: field})
			continue
		}
		end := strings.LastIndexFunc(field, isWordRune)
		_, size := utf8.DecodeRuneInString(field[end:])
		end += size
		tokens = append(tokens, token{
			raw:    field,
			prefix: field[:start],
			core:   field[start:end],
			suffix: field[end:],
		})
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\''
}

func normalisePhrase(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func capitalise(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
