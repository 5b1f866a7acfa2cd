package interpreter

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

//go:embed lexicons/*.toml
var lexiconFiles embed.FS

// DefaultLanguage is the lexicon used when none is configured.
const DefaultLanguage = "es"

// Lexicon is the language-specific rule table an [Interpreter] is compiled from.
//
// Triggers are tried by lowest offset in the utterance; on a tie the one declared
// first wins, so a trigger must be declared before any shorter trigger that is
// its prefix ("poner" before "pon").
type Lexicon struct {
	Language       string            `toml:"language"`
	Separator      string            `toml:"separator"`
	Triggers       []string          `toml:"triggers"`
	SongPrefixes   []string          `toml:"song_prefixes"`
	ArtistPrefixes []string          `toml:"artist_prefixes"`
	Rules          []Rule            `toml:"rules"`
	Messages       map[string]string `toml:"messages"`
}

// Rule maps a set of keywords to a basic action. Rules are evaluated in declaration order.
type Rule struct {
	Action   Action   `toml:"action"`
	Keywords []string `toml:"keywords"`
}

// Validate reports the first structural problem with l.
func (l Lexicon) Validate() error {
	var errs []error
	if strings.TrimSpace(l.Separator) == "" || len(strings.Fields(l.Separator)) != 1 {
		errs = append(errs, fmt.Errorf("separator must be a single word, got %q", l.Separator))
	}
	if len(l.Triggers) == 0 {
		errs = append(errs, errors.New("at least one trigger is required"))
	}
	if slices.ContainsFunc(l.Triggers, isBlank) {
		errs = append(errs, errors.New("triggers must not be blank"))
	}
	if slices.ContainsFunc(l.SongPrefixes, isBlank) || slices.ContainsFunc(l.ArtistPrefixes, isBlank) {
		errs = append(errs, errors.New("prefixes must not be blank"))
	}

	for i, r := range l.Rules {
		switch r.Action {
		case Unknown, PlaySong:
			errs = append(errs, fmt.Errorf("rule %d: action %s cannot be keyword matched", i, r.Action))
		}
		if len(r.Keywords) == 0 || slices.ContainsFunc(r.Keywords, isBlank) {
			errs = append(errs, fmt.Errorf("rule %d (%s): keywords must be non-empty", i, r.Action))
		}
	}

	for key := range l.Messages {
		if _, err := ParseAction(key); err != nil {
			errs = append(errs, fmt.Errorf("messages: unknown action %q", key))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: lexicon %q: %w", shared.ErrInvalidConfig, l.Language, err)
	}
	return nil
}

// Message returns the message template for a, falling back to the action name.
func (l Lexicon) Message(a Action) string {
	if m, ok := l.Messages[a.String()]; ok && m != "" {
		return m
	}
	return a.String()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Languages returns the names of the embedded lexicons.
func Languages() []string {
	entries, err := lexiconFiles.ReadDir("lexicons")
	if err != nil {
		return nil
	}

	var langs []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".toml"); ok {
			langs = append(langs, name)
		}
	}
	return langs
}

// Builtin returns the embedded lexicon for language.
func Builtin(language string) (Lexicon, error) {
	if language == "" {
		language = DefaultLanguage
	}

	data, err := lexiconFiles.ReadFile(path.Join("lexicons", language+".toml"))
	if err != nil {
		return Lexicon{}, fmt.Errorf("%w: no built-in lexicon for %q (available: %s)",
			shared.ErrInvalidConfig, language, strings.Join(Languages(), ", "))
	}
	return parseLexicon(data, language)
}

// LoadLexicon reads a lexicon from a TOML file.
func LoadLexicon(p string) (Lexicon, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Lexicon{}, fmt.Errorf("failed to read lexicon: %w", err)
	}
	return parseLexicon(data, p)
}

func parseLexicon(data []byte, name string) (Lexicon, error) {
	var lex Lexicon
	if _, err := toml.Decode(string(data), &lex); err != nil {
		return Lexicon{}, fmt.Errorf("%w: failed to parse lexicon %s: %w", shared.ErrInvalidConfig, name, err)
	}
	return lex, nil
}
