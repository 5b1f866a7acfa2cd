package interpreter

import (
	"slices"
	"strings"
	"sync"
)

type ruleKind int

const (
	// ruleExtract splits "<trigger> <song> <separator> <artist>" into a PlaySong intent.
	ruleExtract ruleKind = iota
	// ruleContains matches when any keyword occurs anywhere in the utterance.
	ruleContains
)

type rule struct {
	kind     ruleKind
	action   Action
	keywords []string
}

// Interpreter is a compiled [Lexicon]. The zero value is not usable; see [New].
type Interpreter struct {
	language       string
	separator      string
	triggers       []string
	songPrefixes   []string
	artistPrefixes []string
	rules          []rule
	messages       map[Action]string
}

// New validates lex and compiles it into an Interpreter.
func New(lex Lexicon) (*Interpreter, error) {
	if err := lex.Validate(); err != nil {
		return nil, err
	}

	in := &Interpreter{
		language:       lex.Language,
		separator:      foldKeyword(lex.Separator),
		triggers:       foldAll(lex.Triggers),
		songPrefixes:   foldAll(lex.SongPrefixes),
		artistPrefixes: foldAll(lex.ArtistPrefixes),
		rules:          []rule{{kind: ruleExtract, action: PlaySong}},
		messages:       make(map[Action]string, len(actionNames)),
	}

	for _, r := range lex.Rules {
		in.rules = append(in.rules, rule{kind: ruleContains, action: r.Action, keywords: foldAll(r.Keywords)})
	}
	for _, a := range Actions() {
		in.messages[a] = lex.Message(a)
	}
	return in, nil
}

// Load compiles the lexicon at lexiconPath, or the built-in lexicon for language when the path is empty.
func Load(language, lexiconPath string) (*Interpreter, error) {
	var (
		lex Lexicon
		err error
	)
	if lexiconPath != "" {
		lex, err = LoadLexicon(lexiconPath)
	} else {
		lex, err = Builtin(language)
	}
	if err != nil {
		return nil, err
	}
	return New(lex)
}

var defaultInterpreter = sync.OnceValue(func() *Interpreter {
	lex, err := Builtin(DefaultLanguage)
	if err != nil {
		panic("failed to load embedded lexicon: " + err.Error())
	}
	in, err := New(lex)
	if err != nil {
		panic("failed to compile embedded lexicon: " + err.Error())
	}
	return in
})

// Default returns the process-wide interpreter for [DefaultLanguage].
func Default() *Interpreter {
	return defaultInterpreter()
}

// Classify classifies utterance with [Default].
func Classify(utterance string) Intent {
	return Default().Classify(utterance)
}

// Language returns the language of the compiled lexicon.
func (in *Interpreter) Language() string {
	return in.language
}

// Classify maps utterance to exactly one [Intent]. It never fails: input
// matching no rule, including the empty string, yields an [Unknown] intent.
func (in *Interpreter) Classify(utterance string) Intent {
	text := normalize(utterance)
	if text == "" {
		return in.Intent(Unknown)
	}
	lower := fold(text).text

	for _, r := range in.rules {
		switch r.kind {
		case ruleExtract:
			if song, artist, ok := in.extract(text); ok {
				return in.PlaySong(song, artist)
			}
		case ruleContains:
			if containsAny(lower, r.keywords) {
				return in.Intent(r.action)
			}
		}
	}
	return in.Intent(Unknown)
}

// Extract attempts only the structured "play song by artist" rule.
func (in *Interpreter) Extract(utterance string) (Intent, bool) {
	song, artist, ok := in.extract(normalize(utterance))
	if !ok {
		return Intent{}, false
	}
	return in.PlaySong(song, artist), true
}

// extract finds the earliest trigger in text and splits what follows it at the
// first separator. text must already be normalized.
func (in *Interpreter) extract(text string) (song, artist string, ok bool) {
	f := fold(text)

	start, end := -1, -1
	for _, t := range in.triggers {
		idx := strings.Index(f.text, t)
		if idx >= 0 && (start < 0 || idx < start) {
			start, end = idx, idx+len(t)
		}
	}
	if start < 0 {
		return "", "", false
	}

	rest := fold(strings.TrimSpace(f.slice(end, len(f.text))))
	sep := " " + in.separator + " "
	idx := strings.Index(rest.text, sep)
	if idx < 0 {
		return "", "", false
	}

	song = in.CleanSong(rest.slice(0, idx))
	artist = in.CleanArtist(rest.slice(idx+len(sep), len(rest.text)))
	if song == "" || artist == "" {
		return "", "", false
	}
	return song, artist, true
}

// CleanSong strips filler prefixes such as "la canción" and re-joins titles
// split around the separator by a one or two letter particle
// ("keep up de o" becomes "keep updeo"). The result is a fixed point:
// cleaning it again returns it unchanged.
func (in *Interpreter) CleanSong(s string) string {
	s = normalize(s)
	for {
		next := normalize(in.mergeParticles(stripPrefixes(s, in.songPrefixes)))
		if next == s {
			return s
		}
		s = next
	}
}

// CleanArtist strips filler prefixes such as "el artista". Like [Interpreter.CleanSong] it is idempotent.
func (in *Interpreter) CleanArtist(s string) string {
	return stripPrefixes(normalize(s), in.artistPrefixes)
}

// stripPrefixes removes leading prefixes, case-insensitively, until none applies.
func stripPrefixes(s string, prefixes []string) string {
	for {
		f := fold(s)
		stripped := false
		for _, p := range prefixes {
			if f.hasPrefixWord(p) {
				s = strings.TrimSpace(f.slice(len(p)+1, len(f.text)))
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// mergeParticles joins every "X <sep> YY" run, where YY has at most two runes,
// into the single token "X<sep>YY". Merged tokens take part in later checks and
// the scan restarts until no run is left.
func (in *Interpreter) mergeParticles(s string) string {
	parts := strings.Fields(s)
	for merged := true; merged; {
		merged = false
		for i := 0; i+2 < len(parts); i++ {
			if fold(parts[i+1]).text == in.separator && runeLen(parts[i+2]) <= 2 {
				parts = slices.Replace(parts, i, i+3, parts[i]+parts[i+1]+parts[i+2])
				merged = true
				break
			}
		}
	}
	return strings.Join(parts, " ")
}

// Intent returns the intent for a with the lexicon's message.
func (in *Interpreter) Intent(a Action) Intent {
	return Intent{Action: a, Message: in.messages[a]}
}

// PlaySong returns a [PlaySong] intent for song and artist as given, without extraction or cleanup.
func (in *Interpreter) PlaySong(song, artist string) Intent {
	msg := strings.NewReplacer("{song}", song, "{artist}", artist).Replace(in.messages[PlaySong])
	return Intent{Action: PlaySong, Song: song, Artist: artist, Message: msg}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = foldKeyword(s)
	}
	return out
}
