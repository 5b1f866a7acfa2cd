// Package repositories provides sqlite persistence for the command log.
//
// [CommandRepository] implements models.Repository[*models.CommandRecord] with soft deletes
// and a per-table sequence ([NextSequence]) for stable ordering.
// [HistoryRecorder] adapts it to tasks.Recorder so the command queue can log every utterance.
package repositories
