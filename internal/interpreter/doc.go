// package interpreter classifies free-form playback commands into an [Intent].
//
// Classification is driven by a [Lexicon]: an ordered table of play triggers,
// the separator word that splits a title from its artist, filler prefixes to
// strip, and keyword rules for the basic actions (pause, next, volume...).
// A compiled [Interpreter] is immutable and safe for concurrent use.
//
// Matching is done on a lower-cased, NFC-normalized copy of the utterance while
// song and artist names are sliced from the original text, so capitalization
// survives:
//
//	in := interpreter.Default()
//	in.Classify("pon Despacito de Luis Fonsi")
//	// Intent{Action: PlaySong, Song: "Despacito", Artist: "Luis Fonsi", ...}
package interpreter
