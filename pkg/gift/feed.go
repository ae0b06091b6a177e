package gift

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Search returns the gifts whose item, sender name or receiver name
// contains query, ignoring case, ordered newest first. An empty query
// matches everything.
func Search(gifts []Gift, users []User, query string) []Gift {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = strings.ToLower(u.Name)
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]Gift, 0, len(gifts))
	for _, g := range gifts {
		if q == "" ||
			strings.Contains(strings.ToLower(g.Item), q) ||
			strings.Contains(names[g.SenderID], q) ||
			strings.Contains(names[g.ReceiverID], q) {
			out = append(out, g)
		}
	}
	slices.SortStableFunc(out, func(a, b Gift) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
	return out
}

// SortComments orders comments oldest first, in place.
func SortComments(comments []Comment) {
	slices.SortStableFunc(comments, func(a, b Comment) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
}

// FormatAge renders the time since ts (epoch ms) in the largest whole unit:
// "2d", "3h", "5m" or "just now".
func FormatAge(ts int64, now time.Time) string {
	diff := now.Sub(time.UnixMilli(ts))
	minutes := int(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "just now"
	}
}
