package keymap

import "testing"

func TestDefaults(t *testing.T) {
	m := New(nil)
	cases := map[string]Action{
		"ctrl+c": ActionQuit,
		"tab":    ActionCyclePane,
		"j":      ActionNextThread,
		"k":      ActionPrevThread,
		"r":      ActionReload,
	}
	for key, want := range cases {
		got, ok := m.Lookup(key)
		if !ok || got != want {
			t.Errorf("Lookup(%q) = %q, %v; want %q", key, got, ok, want)
		}
	}
	if _, ok := m.Lookup("ctrl+z"); ok {
		t.Error("unbound key resolved to an action")
	}
}

func TestOverridesWin(t *testing.T) {
	m := New(map[string]string{
		"r":      "copy-thread",
		"ctrl+r": "reload",
	})
	if got, _ := m.Lookup("r"); got != ActionCopyThread {
		t.Errorf("override not applied: %q", got)
	}
	if got, _ := m.Lookup("ctrl+r"); got != ActionReload {
		t.Errorf("new binding not applied: %q", got)
	}
}

func TestUnknownActionIgnored(t *testing.T) {
	m := New(map[string]string{"r": "summon-dragon"})
	if got, ok := m.Lookup("r"); !ok || got != ActionReload {
		t.Errorf("unknown action must not shadow default: %q, %v", got, ok)
	}
}
