// Package models defines persistent entities and repository interfaces.
//
// [CommandRecord] is the only entity: one row per processed utterance, holding the classified
// action, the extracted song and artist, the execution status and the played track id.
// It implements [Model], and the repositories package provides a [Repository] for it.
//
// Records keep private fields behind accessors so that IDs, sequences and timestamps are
// only assigned by the persistence layer.
package models
