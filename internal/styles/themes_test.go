package styles

import "testing"

func TestIsValidHexColor(t *testing.T) {
	valid := []string{"#FFFFFF", "#1f2937", "#00000080"}
	for _, s := range valid {
		if !IsValidHexColor(s) {
			t.Errorf("expected %q valid", s)
		}
	}
	invalid := []string{"FFFFFF", "#FFF", "#GGGGGG", "#12345"}
	for _, s := range invalid {
		if IsValidHexColor(s) {
			t.Errorf("expected %q invalid", s)
		}
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("no-such-theme"); got.Name != "default" {
		t.Errorf("expected default fallback, got %q", got.Name)
	}
	if got := GetTheme("light"); got.Name != "light" {
		t.Errorf("expected light theme, got %q", got.Name)
	}
}

func TestApplySwitchesTheme(t *testing.T) {
	Apply("light")
	defer Apply("default")
	if CurrentTheme().Name != "light" {
		t.Errorf("apply did not switch theme: %q", CurrentTheme().Name)
	}
	if SyntaxTheme() != "github" {
		t.Errorf("syntax theme not switched: %q", SyntaxTheme())
	}
	if MarkdownTheme() != "light" {
		t.Errorf("markdown theme not switched: %q", MarkdownTheme())
	}
}

func TestApplyUnknownKeepsCurrent(t *testing.T) {
	Apply("default")
	Apply("no-such-theme")
	if CurrentTheme().Name != "default" {
		t.Errorf("unknown theme changed current: %q", CurrentTheme().Name)
	}
}

func TestRegisterTheme(t *testing.T) {
	custom := DefaultTheme
	custom.Name = "custom"
	RegisterTheme(custom)
	if !IsValidTheme("custom") {
		t.Error("registered theme not found")
	}
	found := false
	for _, name := range ListThemes() {
		if name == "custom" {
			found = true
		}
	}
	if !found {
		t.Error("registered theme missing from list")
	}
}
