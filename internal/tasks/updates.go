package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
)

// Event reports the progress of a single utterance through the [Queue].
type Event struct {
	Phase     Phase              // Processing phase
	Utterance string             // Raw utterance as submitted
	Intent    interpreter.Intent // Classified intent, zero before [Classified]
	Outcome   *Outcome           // Set for [Completed], [Ignored] and [Failed]
	Err       error              // Set for [Failed] and [Dropped]
	Message   string             // Human-readable message for display
}

// Phase enumerates the stages an utterance passes through.
type Phase int

const (
	Received Phase = iota
	Classified
	Executing
	Completed
	Ignored
	Failed
	Dropped
)

func (p Phase) String() string {
	switch p {
	case Received:
		return "received"
	case Classified:
		return "classified"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	case Dropped:
		return "dropped"
	default:
		return ""
	}
}

// Final reports whether p ends the processing of an utterance.
func (p Phase) Final() bool {
	switch p {
	case Completed, Ignored, Failed, Dropped:
		return true
	default:
		return false
	}
}

type eventJSON struct {
	Phase     string              `json:"phase"`
	Utterance string              `json:"utterance"`
	Intent    *interpreter.Intent `json:"intent,omitempty"`
	Outcome   *Outcome            `json:"outcome,omitempty"`
	Error     string              `json:"error,omitempty"`
	Message   string              `json:"message"`
}

// MarshalJSON renders the phase by name and the error as its message.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{
		Phase:     e.Phase.String(),
		Utterance: e.Utterance,
		Outcome:   e.Outcome,
		Message:   e.Message,
	}
	if e.Phase >= Classified && e.Phase != Dropped {
		out.Intent = &e.Intent
	}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return json.Marshal(out)
}

func receivedEvent(utterance string) Event {
	return Event{Phase: Received, Utterance: utterance, Message: fmt.Sprintf("Received %q", utterance)}
}

func classifiedEvent(utterance string, intent interpreter.Intent) Event {
	return Event{
		Phase:     Classified,
		Utterance: utterance,
		Intent:    intent,
		Message:   fmt.Sprintf("Classified as %s", intent.Action),
	}
}

func executingEvent(utterance string, intent interpreter.Intent) Event {
	return Event{Phase: Executing, Utterance: utterance, Intent: intent, Message: intent.Message}
}

func outcomeEvent(utterance string, outcome *Outcome, err error) Event {
	ev := Event{Utterance: utterance, Intent: outcome.Intent, Outcome: outcome, Err: err}
	switch {
	case err != nil:
		ev.Phase = Failed
		ev.Message = fmt.Sprintf("Failed: %v", err)
	case outcome.Status == StatusIgnored:
		ev.Phase = Ignored
		ev.Message = outcome.Intent.Message
	default:
		ev.Phase = Completed
		ev.Message = outcome.Summary()
	}
	return ev
}

func droppedEvent(utterance string, err error) Event {
	return Event{Phase: Dropped, Utterance: utterance, Err: err, Message: fmt.Sprintf("Dropped %q: %v", utterance, err)}
}
