// Package ui implements an interactive terminal remote using bubbletea's Elm architecture.
//
// The screen has three parts:
//  1. a status line with the current track, device and volume
//  2. a text input where commands are typed ("pausa", "reproduce X de Y")
//  3. a list of recent commands with their outcome, newest first
//
// Submitted commands go to a [Submitter] (tasks.Queue), whose single worker runs them in order.
// The worker's events are read back one at a time as [Msg] values; final ones update the history
// and refresh the status line.
//
// tab moves focus between the input and the history, ctrl+r refreshes the status and esc quits.
package ui
