package player

import "testing"

func TestPositionFromElementType(t *testing.T) {
	tests := []struct {
		in   int
		want Position
	}{
		{in: 1, want: PositionGoalkeeper},
		{in: 2, want: PositionDefender},
		{in: 3, want: PositionMidfielder},
		{in: 4, want: PositionForward},
		{in: 5, want: PositionUnknown},
		{in: 0, want: PositionUnknown},
	}

	for _, tt := range tests {
		if got := PositionFromElementType(tt.in); got != tt.want {
			t.Fatalf("PositionFromElementType(%d)=%s want=%s", tt.in, got, tt.want)
		}
	}
}

func TestDirectory_LookupAndTeamName(t *testing.T) {
	dir := NewDirectory([]Entry{
		{ID: 328, WebName: "M.Salah", TeamCode: 14, Position: PositionMidfielder, PhotoCode: "118748.jpg"},
		{ID: 0, WebName: "ignored"},
		{ID: 401, WebName: "Odd", Position: Position("WING")},
	}, map[int]string{14: "Liverpool", 3: " "})

	if dir.Len() != 2 {
		t.Fatalf("expected 2 players, got %d", dir.Len())
	}

	salah, ok := dir.Lookup(328)
	if !ok {
		t.Fatalf("expected player 328 in directory")
	}
	if got := dir.TeamName(salah.TeamCode); got != "Liverpool" {
		t.Fatalf("unexpected team name: %q", got)
	}
	if got := salah.PhotoURL(); got != photoBaseURL+"118748.png" {
		t.Fatalf("unexpected photo url: %q", got)
	}

	odd, _ := dir.Lookup(401)
	if odd.Position != PositionUnknown {
		t.Fatalf("expected unknown position, got %s", odd.Position)
	}
	if got := dir.TeamName(3); got != UnknownTeamName {
		t.Fatalf("expected blank team name to be dropped, got %q", got)
	}
	if _, ok := dir.Lookup(999); ok {
		t.Fatalf("did not expect player 999")
	}
}

func TestDirectory_ZeroValue(t *testing.T) {
	var dir Directory
	if !dir.Empty() {
		t.Fatalf("expected zero directory to be empty")
	}
	if _, ok := dir.Lookup(1); ok {
		t.Fatalf("did not expect lookup hit on zero directory")
	}
	if got := dir.TeamName(1); got != UnknownTeamName {
		t.Fatalf("unexpected team name: %q", got)
	}
	if got := PlaceholderName(77); got != "Player_77" {
		t.Fatalf("unexpected placeholder: %q", got)
	}
}
