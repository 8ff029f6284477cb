package mutator

import "testing"

func newTestState(lines []string) *State {
	return &State{Lines: lines, DialogMarks: make(map[int][]string)}
}

// TestFindReplace_CasePreservation exercises scenario 4 from the
// testable-properties list: find_replace("Coco","Koko") is a no-op,
// then find_replace("going","traveling") recases to the match.
func TestFindReplace_CasePreservation(t *testing.T) {
	s := newTestState([]string{"I'm going to Koko."})

	s.FindReplace("Coco", "Koko")
	s.FindReplace("going", "traveling")

	want := "I'm traveling to Koko."
	if s.Lines[0] != want {
		t.Errorf("got %q, want %q", s.Lines[0], want)
	}
}

func TestFindReplace_BasicCasing(t *testing.T) {
	cases := []struct {
		line, want string
	}{
		{"Hello", "World"},
		{"HELLO", "WORLD"},
		{"hello", "world"},
	}
	for _, c := range cases {
		s := newTestState([]string{c.line})
		s.FindReplace("hello", "world")
		if s.Lines[0] != c.want {
			t.Errorf("FindReplace on %q = %q, want %q", c.line, s.Lines[0], c.want)
		}
	}
}

func TestFindReplace_WholeWordGuard(t *testing.T) {
	s := newTestState([]string{"oktober"})
	s.FindReplace("ok", "okay")
	if s.Lines[0] != "oktober" {
		t.Errorf("whole-word guard failed, got %q", s.Lines[0])
	}
}

// TestNameCase_Scenario exercises scenario 5: name_case("Krile") on
// "cara and CARA and Cara" leaves the all-upper and already-name-cased
// matches untouched and recases only the plain-lowercase one.
func TestNameCase_Scenario(t *testing.T) {
	s := newTestState([]string{"cara and CARA and Cara"})
	s.NameCase("Krile")

	want := "Krile and CARA and Cara"
	if s.Lines[0] != want {
		t.Errorf("got %q, want %q", s.Lines[0], want)
	}
}

func TestTargetFindReplace_EmptyNeedlePrepends(t *testing.T) {
	s := newTestState([]string{"world"})
	replaced := s.TargetFindReplace(0, "", "hello ")
	if !replaced {
		t.Error("expected TargetFindReplace to report a replacement")
	}
	if s.Lines[0] != "hello world" {
		t.Errorf("got %q", s.Lines[0])
	}
}

func TestTargetFindReplace_ReportsNoMatch(t *testing.T) {
	s := newTestState([]string{"hello world"})
	if s.TargetFindReplace(0, "goodbye", "farewell") {
		t.Error("expected no replacement to be reported")
	}
	if s.Lines[0] != "hello world" {
		t.Errorf("line should be unchanged, got %q", s.Lines[0])
	}
}

func TestTargetFindReplace_CaseSensitive(t *testing.T) {
	s := newTestState([]string{"Hello HELLO hello"})
	s.TargetFindReplace(0, "hello", "hi")
	if s.Lines[0] != "Hello HELLO hi" {
		t.Errorf("got %q", s.Lines[0])
	}
}
