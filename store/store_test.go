package store

import (
	"os"
	"testing"

	"moviebook-cli/model"
)

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
}

func TestSetTheatreHidden_RoundTrip(t *testing.T) {
	setTestConfigDir(t)

	hidden, err := LoadHiddenTheatres()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(hidden) != 0 {
		t.Fatalf("expected no hidden theatres, got %+v", hidden)
	}

	if err := SetTheatreHidden("10", true); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := SetTheatreHidden("11", true); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	hidden, err = LoadHiddenTheatres()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !hidden["10"] || !hidden["11"] {
		t.Fatalf("expected theatres to be hidden, got %+v", hidden)
	}

	if err := SetTheatreHidden("10", false); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	hidden, err = LoadHiddenTheatres()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if hidden["10"] {
		t.Fatalf("expected theatre 10 visible, got %+v", hidden)
	}
	if !hidden["11"] {
		t.Fatalf("expected theatre 11 hidden, got %+v", hidden)
	}
}

func TestSetTheatreHidden_InvalidInput(t *testing.T) {
	setTestConfigDir(t)

	if err := SetTheatreHidden(" ", true); err == nil {
		t.Fatal("expected error for empty theatre id")
	}
}

func TestSession_SaveLoadClear(t *testing.T) {
	setTestConfigDir(t)

	session, err := LoadSession()
	if err != nil || session != nil {
		t.Fatalf("expected no session, got %+v (%v)", session, err)
	}

	if err := SaveSession(Session{Token: "tok", User: model.User{Id: "u1", Name: "Asha"}}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	path, _ := configPath("session.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected session file, got %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	session, err = LoadSession()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if session == nil || session.Token != "tok" || session.User.Name != "Asha" || session.SavedAt.IsZero() {
		t.Fatalf("unexpected session: %+v", session)
	}

	if err := ClearSession(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("expected clearing twice to be fine, got %v", err)
	}
	if session, _ := LoadSession(); session != nil {
		t.Fatalf("expected session cleared, got %+v", session)
	}
}

func TestSaveSession_RequiresToken(t *testing.T) {
	setTestConfigDir(t)
	if err := SaveSession(Session{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestShowCache_FreshAfterSave(t *testing.T) {
	setTestConfigDir(t)

	shows, ok, err := LoadShowCache("m1")
	if err != nil || ok || len(shows) != 0 {
		t.Fatalf("expected empty stale cache, got %v %v %v", shows, ok, err)
	}
	if err := SaveShowCache("m1", []model.Show{{Id: "s1", Timings: "10:00 AM"}}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	shows, ok, err = LoadShowCache("m1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !ok || len(shows) != 1 || shows[0].Id != "s1" {
		t.Fatalf("unexpected cache: %+v fresh=%v", shows, ok)
	}
}

func TestRememberTheatre_DedupesAndCaps(t *testing.T) {
	setTestConfigDir(t)

	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		if err := RememberTheatre(model.Ref{ID: id, Name: "Theatre " + id, City: "Pune"}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	if err := RememberTheatre(model.Ref{ID: "c", Name: "Theatre c", City: "Pune"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	recent, err := LoadRecentTheatres()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(recent) != maxRecentTheatre {
		t.Fatalf("expected %d theatres, got %d", maxRecentTheatre, len(recent))
	}
	if recent[0].TheatreID != "c" {
		t.Fatalf("expected c first, got %+v", recent[0])
	}
	for _, r := range recent[1:] {
		if r.TheatreID == "c" {
			t.Fatalf("expected c once, got %+v", recent)
		}
	}
}

func TestSafeName(t *testing.T) {
	if got := safeName("../x y"); got != "___x_y" {
		t.Fatalf("unexpected safe name %q", got)
	}
	if got := safeName(""); got != "all" {
		t.Fatalf("expected all, got %q", got)
	}
}
