package gift

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a participant in the gift graph.
type User struct {
	ID        string `json:"id" bson:"_id"`
	Name      string `json:"name" bson:"name"`
	Avatar    string `json:"avatar" bson:"avatar"`
	Color     string `json:"color" bson:"color"`
	CreatedAt int64  `json:"created_at,omitempty" bson:"created_at"`
}

// Comment is a note left on a gift.
type Comment struct {
	ID        string `json:"id" bson:"id"`
	UserName  string `json:"user_name" bson:"user_name"`
	Text      string `json:"text" bson:"text"`
	Timestamp int64  `json:"timestamp" bson:"timestamp"`
}

// Gift is a directed transfer from SenderID to ReceiverID.
// SenderID never equals ReceiverID for gifts accepted by [Service].
type Gift struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	Item       string    `json:"item" bson:"item"`
	Timestamp  int64     `json:"timestamp" bson:"timestamp"`
	Tips       int       `json:"tips" bson:"tips"`
	Comments   []Comment `json:"comments" bson:"comments"`
}

// Clone returns a copy of g that shares no memory with it.
func (g Gift) Clone() Gift {
	g.Comments = slices.Clone(g.Comments)
	return g
}

// Store persists users, gifts and comments.
//
// ListGifts returns gifts newest first, each with comments oldest first.
// ResolveOrCreateUser matches names case-insensitively and creates the user
// with [NewUser] when no match exists.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListGifts(ctx context.Context) ([]Gift, error)
	ResolveOrCreateUser(ctx context.Context, name string) (User, error)
	RecordGift(ctx context.Context, senderID, receiverID, item string) (Gift, error)
	UpdateGift(ctx context.Context, id, senderID, receiverID, item string) error
	DeleteGift(ctx context.Context, id string) error
	AddComment(ctx context.Context, giftID, userName, text string) (Comment, error)
	IncrementTip(ctx context.Context, giftID string, currentTips int) error
	Close() error
}

// Seeder is implemented by stores that can be bulk-loaded with demo data.
type Seeder interface {
	Seed(ctx context.Context, users []User, gifts []Gift) error
}

// Snapshot is a consistent read of everything the graph is built from.
type Snapshot struct {
	Users []User `json:"users"`
	Gifts []Gift `json:"gifts"`
}

// UserByID indexes users by ID.
func (s Snapshot) UserByID() map[string]User {
	m := make(map[string]User, len(s.Users))
	for _, u := range s.Users {
		m[u.ID] = u
	}
	return m
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 { return t.UnixMilli() }

// NewUser builds a user record for a name that has not been seen before.
// The avatar and colour are derived from the name so that the same name
// always renders the same way.
func NewUser(name string, now time.Time) User {
	name = strings.TrimSpace(name)
	return User{
		ID:        "u-" + uuid.NewString(),
		Name:      name,
		Avatar:    AvatarURL(name),
		Color:     ColorFor(name),
		CreatedAt: Millis(now),
	}
}

// AvatarURL returns the placeholder avatar for name.
func AvatarURL(name string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/100/100", url.PathEscape(name))
}

// ColorFor returns an hsl() colour whose hue is derived from the lowercased name.
func ColorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", h.Sum32()%360)
}

// NewGiftID returns a fresh gift identifier.
func NewGiftID() string { return "g-" + uuid.NewString() }

// NewCommentID returns a fresh comment identifier.
func NewCommentID() string { return "c-" + uuid.NewString() }
