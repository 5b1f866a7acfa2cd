package interpreter

import (
	"encoding/json"
	"testing"
)

func TestAction(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		if PlaySong.String() != "play_song" || VolumeDown.String() != "volume_down" {
			t.Errorf("unexpected names %s %s", PlaySong, VolumeDown)
		}
		if Action(42).String() != "Action(42)" {
			t.Errorf("unexpected out of range name %s", Action(42))
		}
	})

	t.Run("ParseAction", func(t *testing.T) {
		for _, a := range Actions() {
			got, err := ParseAction(a.String())
			if err != nil || got != a {
				t.Errorf("ParseAction(%s) = %s, %v", a, got, err)
			}
		}
		if _, err := ParseAction("shuffle"); err == nil {
			t.Error("expected error for unknown action")
		}
	})

	t.Run("Intent JSON", func(t *testing.T) {
		b, err := json.Marshal(Intent{Action: PlaySong, Song: "Hola", Artist: "Juan", Message: "m"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"action":"play_song","song":"Hola","artist":"Juan","message":"m"}`
		if string(b) != want {
			t.Errorf("got %s, want %s", b, want)
		}

		var decoded Intent
		if err := json.Unmarshal([]byte(`{"action":"pause","message":"x"}`), &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded.Action != Pause {
			t.Errorf("expected pause, got %s", decoded.Action)
		}
	})

	t.Run("Understood", func(t *testing.T) {
		if (Intent{Action: Unknown}).Understood() {
			t.Error("unknown should not be understood")
		}
		if !(Intent{Action: Next}).Understood() {
			t.Error("next should be understood")
		}
	})
}
