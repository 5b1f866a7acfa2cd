// Package tasks turns classified intents into playback commands.
//
// # Execution
//
// [Executor] maps an [interpreter.Intent] onto a [services.PlaybackController]:
//
//  1. play_song : search "track:{song} artist:{artist}", fall back to a plain query,
//     resume if playback is paused, then enqueue the best match and skip to it
//  2. pause, resume, next, previous : one controller call on the configured device
//  3. volume_up, volume_down : read the active device volume and step it, clamped to 0-100
//  4. unknown : no controller call, the outcome is marked ignored
//
// # Queue
//
// [Queue] accepts utterances from any number of producers through a bounded channel.
// [Queue.Submit] never blocks and reports [shared.ErrQueueFull] when the buffer is full.
// A single worker started with [Queue.Run] classifies, executes, and records each utterance
// in arrival order, throttled by a token bucket (golang.org/x/time/rate).
//
// Progress is reported as [Event] values over a caller-owned channel. Sends use select with
// default so a slow reader never stalls the worker.
//
// # Recording
//
// The optional [Recorder] interface persists every processed utterance
// (repositories.HistoryRecorder). Recording failures are logged and otherwise ignored.
package tasks
