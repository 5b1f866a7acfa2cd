package interpreter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

func TestClassify(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    Action
		song    string
		artist  string
		message string
	}{
		{
			name:    "trigger then separator splits song and artist",
			input:   "reproduce canción de Bad Bunny",
			want:    PlaySong,
			song:    "canción",
			artist:  "Bad Bunny",
			message: "Buscando canción de Bad Bunny",
		},
		{
			name:    "short trigger",
			input:   "pon música de Shakira",
			want:    PlaySong,
			song:    "música",
			artist:  "Shakira",
			message: "Buscando música de Shakira",
		},
		{
			name:   "prefixes are stripped and case is preserved",
			input:  "Reproduce La Canción Despacito de El Artista Luis Fonsi",
			want:   PlaySong,
			song:   "Despacito",
			artist: "Luis Fonsi",
		},
		{
			name:   "text before the trigger is ignored",
			input:  "oye por favor pon Despacito de Luis Fonsi",
			want:   PlaySong,
			song:   "Despacito",
			artist: "Luis Fonsi",
		},
		{
			name:   "longer trigger wins a tie at the same offset",
			input:  "poner Flowers de Miley Cyrus",
			want:   PlaySong,
			song:   "Flowers",
			artist: "Miley Cyrus",
		},
		{
			name:   "lowest offset trigger wins",
			input:  "escuchar Hello de Adele y pon otra",
			want:   PlaySong,
			song:   "Hello",
			artist: "Adele y pon otra",
		},
		{
			name:   "split happens at the first separator",
			input:  "tocar Hijo de la Luna de Mecano",
			want:   PlaySong,
			song:   "Hijo",
			artist: "la Luna de Mecano",
		},
		{
			name:   "separator is case-insensitive",
			input:  "pon Hola DE Juan",
			want:   PlaySong,
			song:   "Hola",
			artist: "Juan",
		},
		{
			name:   "whitespace is collapsed",
			input:  "  pon   Despacito \t de   Luis  Fonsi ",
			want:   PlaySong,
			song:   "Despacito",
			artist: "Luis Fonsi",
		},
		{
			name:   "artist singer prefix",
			input:  "escuchar Malamente de la cantante Rosalía",
			want:   PlaySong,
			song:   "Malamente",
			artist: "Rosalía",
		},
		{
			name:    "pause",
			input:   "pausa la música",
			want:    Pause,
			message: "Pausando...",
		},
		{
			name:  "pause matches inside another word",
			input: "no quiero detenerme",
			want:  Pause,
		},
		{
			name:    "pause is checked before next",
			input:   "pausa y luego siguiente",
			want:    Pause,
			message: "Pausando...",
		},
		{
			name:    "trigger without separator falls back to basic table",
			input:   "reproducir",
			want:    Resume,
			message: "Continuando...",
		},
		{
			name:  "continue",
			input: "continuar por favor",
			want:  Resume,
		},
		{
			name:    "next",
			input:   "saltar a la siguiente",
			want:    Next,
			message: "Siguiente canción",
		},
		{
			name:    "previous",
			input:   "vuelve atrás",
			want:    Previous,
			message: "Canción anterior",
		},
		{
			name:  "previous with decomposed accent",
			input: "vuelve atra\u0301s",
			want:  Previous,
		},
		{
			name:    "volume up",
			input:   "puedes subir volumen",
			want:    VolumeUp,
			message: "Subiendo volumen",
		},
		{
			name:  "volume up needs the exact phrase",
			input: "sube el volumen",
			want:  Unknown,
		},
		{
			name:    "volume down",
			input:   "BAJAR VOLUMEN",
			want:    VolumeDown,
			message: "Bajando volumen",
		},
		{
			name:    "empty",
			input:   "",
			want:    Unknown,
			message: "No entendí el comando",
		},
		{
			name:    "whitespace only",
			input:   " \t\n ",
			want:    Unknown,
			message: "No entendí el comando",
		},
		{
			name:  "trigger followed directly by separator",
			input: "pon de Shakira",
			want:  Unknown,
		},
		{
			name:  "trigger without separator",
			input: "pon algo",
			want:  Unknown,
		},
	}

	in := Default()
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := in.Classify(tt.input)
			if got.Action != tt.want {
				t.Fatalf("Classify(%q) action = %s, want %s", tt.input, got.Action, tt.want)
			}
			if got.Song != tt.song {
				t.Errorf("Classify(%q) song = %q, want %q", tt.input, got.Song, tt.song)
			}
			if got.Artist != tt.artist {
				t.Errorf("Classify(%q) artist = %q, want %q", tt.input, got.Artist, tt.artist)
			}
			if tt.message != "" && got.Message != tt.message {
				t.Errorf("Classify(%q) message = %q, want %q", tt.input, got.Message, tt.message)
			}
			if got.Message == "" {
				t.Errorf("Classify(%q) returned an empty message", tt.input)
			}
		})
	}
}

func TestClassifyProperties(t *testing.T) {
	in := Default()

	t.Run("no trigger never plays a song", func(t *testing.T) {
		words := []string{"la", "música", "de", "Shakira", "siguiente", "volumen", "amor", "canción"}
		for _, a := range words {
			for _, b := range words {
				for _, c := range words {
					input := fmt.Sprintf("%s %s %s %s", a, b, "de", c)
					if got := in.Classify(input); got.Action == PlaySong {
						t.Errorf("Classify(%q) = %+v, want no play_song", input, got)
					}
				}
			}
		}
	})

	t.Run("song and artist come from text after the trigger", func(t *testing.T) {
		inputs := []string{
			"Antes pon Después de Final",
			"ANTES tocar la canción Uno de el artista Dos",
			"algo escuchar X de Y",
		}
		for _, input := range inputs {
			got := in.Classify(input)
			if got.Action != PlaySong {
				t.Fatalf("Classify(%q) action = %s, want play_song", input, got.Action)
			}
			if got.Song == "" || got.Artist == "" {
				t.Errorf("Classify(%q) produced empty fields: %+v", input, got)
			}
			for _, field := range []string{got.Song, got.Artist} {
				for _, before := range []string{"Antes", "ANTES", "algo"} {
					if field == before {
						t.Errorf("Classify(%q) leaked pre-trigger text %q", input, before)
					}
				}
			}
		}
	})

	t.Run("package level Classify uses the default lexicon", func(t *testing.T) {
		if got := Classify("siguiente"); got.Action != Next {
			t.Errorf("Classify(siguiente) = %s, want next", got.Action)
		}
	})

	t.Run("concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				input := fmt.Sprintf("pon Tema %d de Artista %d", i, i)
				got := in.Classify(input)
				if got.Song != fmt.Sprintf("Tema %d", i) || got.Artist != fmt.Sprintf("Artista %d", i) {
					t.Errorf("Classify(%q) = %+v", input, got)
				}
			}()
		}
		wg.Wait()
	})
}

func TestCleanSong(t *testing.T) {
	in := Default()

	tc := []struct {
		name  string
		input string
		want  string
	}{
		{"song prefix", "la canción Despacito", "Despacito"},
		{"prefix is case-insensitive", "EL TEMA Bailando", "Bailando"},
		{"repeated prefixes", "la canción el tema Hola", "Hola"},
		{"prefix alone is kept", "la música", "la música"},
		{"particle merge", "keep up de o", "keep updeo"},
		{"long token is not merged", "keep up de tari", "keep up de tari"},
		{"merged token is rechecked", "a de b de c", "adebdec"},
		{"merge after prefix strip", "el tema x De mi", "xDemi"},
		{"only the first run merges when the next token is long", "keep up de o de tari", "keep updeo de tari"},
		{"two rune particle", "luz de él", "luzdeél"},
		{"whitespace", "  Hola   Mundo ", "Hola Mundo"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := in.CleanSong(tt.input); got != tt.want {
				t.Errorf("CleanSong(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, tt := range tc {
			once := in.CleanSong(tt.input)
			if twice := in.CleanSong(once); twice != once {
				t.Errorf("CleanSong not idempotent for %q: %q then %q", tt.input, once, twice)
			}
		}
	})
}

func TestCleanArtist(t *testing.T) {
	in := Default()

	tc := []struct {
		input string
		want  string
	}{
		{"el artista Bad Bunny", "Bad Bunny"},
		{"EL ARTISTA Bad Bunny", "Bad Bunny"},
		{"la artista Karol G", "Karol G"},
		{"el cantante Juanes", "Juanes"},
		{"la cantante Rosalía", "Rosalía"},
		{"la cantante la artista Shakira", "Shakira"},
		{"el artista", "el artista"},
		{"Mecano", "Mecano"},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got := in.CleanArtist(tt.input)
			if got != tt.want {
				t.Errorf("CleanArtist(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := in.CleanArtist(got); again != got {
				t.Errorf("CleanArtist not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	in := Default()

	t.Run("applies", func(t *testing.T) {
		got, ok := in.Extract("pon Despacito de Luis Fonsi")
		if !ok {
			t.Fatal("expected extraction to apply")
		}
		if got.Query() != "track:Despacito artist:Luis Fonsi" {
			t.Errorf("Query() = %q", got.Query())
		}
		if got.FallbackQuery() != "Despacito Luis Fonsi" {
			t.Errorf("FallbackQuery() = %q", got.FallbackQuery())
		}
	})

	t.Run("not applicable", func(t *testing.T) {
		for _, input := range []string{"", "pausa", "pon algo", "Despacito de Luis Fonsi"} {
			if _, ok := in.Extract(input); ok {
				t.Errorf("Extract(%q) should not apply", input)
			}
		}
	})
}

func TestIntentConstructors(t *testing.T) {
	in := Default()

	if got := in.Intent(Pause); got.Action != Pause || got.Message != "Pausando..." {
		t.Errorf("Intent(Pause) = %+v", got)
	}

	got := in.PlaySong("la de la mochila", "Los de Marras")
	want := Intent{
		Action:  PlaySong,
		Song:    "la de la mochila",
		Artist:  "Los de Marras",
		Message: "Buscando la de la mochila de Los de Marras",
	}
	if got != want {
		t.Errorf("PlaySong() = %+v, want %+v", got, want)
	}
}

func TestEnglishLexicon(t *testing.T) {
	in, err := Load("en", "")
	if err != nil {
		t.Fatalf("failed to load english lexicon: %v", err)
	}
	if in.Language() != "en" {
		t.Errorf("expected language en, got %s", in.Language())
	}

	tc := []struct {
		input  string
		want   Action
		song   string
		artist string
	}{
		{"play Thriller by the artist Michael Jackson", PlaySong, "Thriller", "Michael Jackson"},
		{"please put on the song Yesterday by The Beatles", PlaySong, "Yesterday", "The Beatles"},
		{"pause playback", Pause, "", ""},
		{"skip this one", Next, "", ""},
		{"volume down please", VolumeDown, "", ""},
		{"what time is it", Unknown, "", ""},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got := in.Classify(tt.input)
			if got.Action != tt.want || got.Song != tt.song || got.Artist != tt.artist {
				t.Errorf("Classify(%q) = %+v, want %s %q %q", tt.input, got, tt.want, tt.song, tt.artist)
			}
		})
	}

	if got := in.Classify("play Thriller by Michael Jackson"); got.Message != "Searching Thriller by Michael Jackson" {
		t.Errorf("unexpected message %q", got.Message)
	}
}

func TestLexicon(t *testing.T) {
	t.Run("Languages", func(t *testing.T) {
		langs := Languages()
		for _, want := range []string{"es", "en"} {
			if !slices.Contains(langs, want) {
				t.Errorf("expected built-in language %s in %v", want, langs)
			}
		}
	})

	t.Run("Builtin defaults to spanish", func(t *testing.T) {
		lex, err := Builtin("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lex.Language != "es" || lex.Separator != "de" {
			t.Errorf("unexpected default lexicon %s/%s", lex.Language, lex.Separator)
		}
	})

	t.Run("Builtin unknown language", func(t *testing.T) {
		_, err := Builtin("fr")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := Lexicon{Separator: "de", Triggers: []string{"pon"}}

		tc := []struct {
			name   string
			mutate func(l *Lexicon)
		}{
			{"empty separator", func(l *Lexicon) { l.Separator = " " }},
			{"multi word separator", func(l *Lexicon) { l.Separator = "de la" }},
			{"no triggers", func(l *Lexicon) { l.Triggers = nil }},
			{"blank trigger", func(l *Lexicon) { l.Triggers = []string{"pon", " "} }},
			{"blank prefix", func(l *Lexicon) { l.SongPrefixes = []string{""} }},
			{"play_song rule", func(l *Lexicon) { l.Rules = []Rule{{Action: PlaySong, Keywords: []string{"x"}}} }},
			{"rule without keywords", func(l *Lexicon) { l.Rules = []Rule{{Action: Pause}} }},
			{"unknown message key", func(l *Lexicon) { l.Messages = map[string]string{"dance": "x"} }},
		}

		if err := valid.Validate(); err != nil {
			t.Fatalf("minimal lexicon should be valid: %v", err)
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				lex := valid
				tt.mutate(&lex)
				if _, err := New(lex); !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("missing messages fall back to action names", func(t *testing.T) {
		in, err := New(Lexicon{Separator: "de", Triggers: []string{"pon"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := in.Classify("nada"); got.Message != "unknown" {
			t.Errorf("expected fallback message unknown, got %q", got.Message)
		}
	})

	t.Run("LoadLexicon", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.toml")
		custom := `language = "custom"
separator = "von"
triggers = ["spiele"]

[[rules]]
action = "next"
keywords = ["weiter"]

[messages]
play_song = "Suche {song} von {artist}"
`
		if err := os.WriteFile(path, []byte(custom), 0644); err != nil {
			t.Fatalf("failed to write lexicon: %v", err)
		}

		in, err := Load("", path)
		if err != nil {
			t.Fatalf("failed to load lexicon: %v", err)
		}

		got := in.Classify("spiele Atemlos von Helene Fischer")
		if got.Action != PlaySong || got.Song != "Atemlos" || got.Artist != "Helene Fischer" {
			t.Errorf("unexpected intent %+v", got)
		}
		if got.Message != "Suche Atemlos von Helene Fischer" {
			t.Errorf("unexpected message %q", got.Message)
		}
		if got := in.Classify("weiter"); got.Action != Next {
			t.Errorf("expected next, got %s", got.Action)
		}
	})

	t.Run("LoadLexicon invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("triggers = ["), 0644); err != nil {
			t.Fatalf("failed to write lexicon: %v", err)
		}
		if _, err := LoadLexicon(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadLexicon unknown action", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		data := "separator = \"de\"\ntriggers = [\"pon\"]\n[[rules]]\naction = \"dance\"\nkeywords = [\"baila\"]\n"
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatalf("failed to write lexicon: %v", err)
		}
		if _, err := LoadLexicon(path); err == nil {
			t.Error("expected error for unknown action")
		}
	})
}
