package gift

import (
	"strings"
	"testing"
	"time"
)

func TestSearch(t *testing.T) {
	users := []User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}, {ID: "u3", Name: "Carol"}}
	gifts := []Gift{
		{ID: "g1", SenderID: "u1", ReceiverID: "u2", Item: "Coffee", Timestamp: 100},
		{ID: "g2", SenderID: "u2", ReceiverID: "u3", Item: "Book", Timestamp: 300},
		{ID: "g3", SenderID: "u3", ReceiverID: "u1", Item: "Lunch", Timestamp: 200},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"g2", "g3", "g1"}},
		{"coffee", []string{"g1"}},
		{"ALICE", []string{"g3", "g1"}},
		{"bob", []string{"g2", "g1"}},
		{"  book ", []string{"g2"}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Search(gifts, users, tt.query)
			var ids []string
			for _, g := range got {
				ids = append(ids, g.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Search(%q) = %v, want %v", tt.query, ids, tt.want)
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m"},
		{59 * time.Minute, "59m"},
		{3 * time.Hour, "3h"},
		{47 * time.Hour, "1d"},
		{72 * time.Hour, "3d"},
	}
	for _, tt := range tests {
		if got := FormatAge(Millis(now.Add(-tt.ago)), now); got != tt.want {
			t.Errorf("FormatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestSortComments(t *testing.T) {
	cs := []Comment{{ID: "b", Timestamp: 2}, {ID: "c", Timestamp: 3}, {ID: "a", Timestamp: 1}}
	SortComments(cs)
	if cs[0].ID != "a" || cs[1].ID != "b" || cs[2].ID != "c" {
		t.Errorf("SortComments order = %v", cs)
	}
}

func TestNewUser(t *testing.T) {
	now := time.Unix(1700000000, 0)
	u := NewUser("  Alice ", now)

	if u.Name != "Alice" {
		t.Errorf("Name = %q, want trimmed", u.Name)
	}
	if !strings.HasPrefix(u.ID, "u-") {
		t.Errorf("ID = %q, want u- prefix", u.ID)
	}
	if u.Avatar != "https://picsum.photos/seed/Alice/100/100" {
		t.Errorf("Avatar = %q", u.Avatar)
	}
	if u.CreatedAt != now.UnixMilli() {
		t.Errorf("CreatedAt = %d", u.CreatedAt)
	}
	if ColorFor("alice") != u.Color {
		t.Errorf("colour should not depend on case: %q vs %q", ColorFor("alice"), u.Color)
	}
	if !strings.HasPrefix(u.Color, "hsl(") || !strings.HasSuffix(u.Color, ", 70%, 60%)") {
		t.Errorf("Color = %q", u.Color)
	}
}

func TestAvatarURLEscapes(t *testing.T) {
	got := AvatarURL("a b/c")
	if got != "https://picsum.photos/seed/a%20b%2Fc/100/100" {
		t.Errorf("AvatarURL = %q", got)
	}
}
