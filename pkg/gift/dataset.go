package gift

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/giftgraph/pkg/errors"
)

// Dataset is the in-process form of a store's contents. It is not safe for
// concurrent use; callers provide their own locking.
//
// The JSON form is the document written by the file store.
type Dataset struct {
	Users []User `json:"users"`
	Gifts []Gift `json:"gifts"`
}

// Snapshot returns deep copies of the users (creation order) and gifts
// (newest first).
func (d *Dataset) Snapshot() Snapshot {
	users := slices.Clone(d.Users)
	gifts := make([]Gift, len(d.Gifts))
	for i, g := range d.Gifts {
		gifts[i] = g.Clone()
		SortComments(gifts[i].Comments)
	}
	slices.SortStableFunc(gifts, func(a, b Gift) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		}
		return 0
	})
	return Snapshot{Users: users, Gifts: gifts}
}

// FindUserByName returns the user whose trimmed name matches name
// case-insensitively.
func (d *Dataset) FindUserByName(name string) (User, bool) {
	for _, u := range d.Users {
		if errors.SameName(u.Name, name) {
			return u, true
		}
	}
	return User{}, false
}

func (d *Dataset) hasUser(id string) bool {
	return slices.ContainsFunc(d.Users, func(u User) bool { return u.ID == id })
}

func (d *Dataset) giftIndex(id string) int {
	return slices.IndexFunc(d.Gifts, func(g Gift) bool { return g.ID == id })
}

// ResolveOrCreateUser returns the existing user for name or appends a new
// one. The boolean reports whether a user was created.
func (d *Dataset) ResolveOrCreateUser(name string, now time.Time) (User, bool) {
	if u, ok := d.FindUserByName(name); ok {
		return u, false
	}
	u := NewUser(name, now)
	d.Users = append(d.Users, u)
	return u, true
}

// RecordGift appends a gift with zero tips and no comments.
func (d *Dataset) RecordGift(senderID, receiverID, item string, now time.Time) (Gift, error) {
	if err := d.checkUsers(senderID, receiverID); err != nil {
		return Gift{}, err
	}
	g := Gift{
		ID:         NewGiftID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Item:       item,
		Timestamp:  Millis(now),
		Comments:   []Comment{},
	}
	d.Gifts = append(d.Gifts, g)
	return g.Clone(), nil
}

// UpdateGift replaces the endpoints and item of an existing gift. Tips,
// comments and the timestamp are preserved.
func (d *Dataset) UpdateGift(id, senderID, receiverID, item string) error {
	i := d.giftIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", id)
	}
	if err := d.checkUsers(senderID, receiverID); err != nil {
		return err
	}
	d.Gifts[i].SenderID = senderID
	d.Gifts[i].ReceiverID = receiverID
	d.Gifts[i].Item = item
	return nil
}

// DeleteGift removes a gift and its comments.
func (d *Dataset) DeleteGift(id string) error {
	i := d.giftIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", id)
	}
	d.Gifts = slices.Delete(d.Gifts, i, i+1)
	return nil
}

// AddComment appends a comment to a gift.
func (d *Dataset) AddComment(giftID, userName, text string, now time.Time) (Comment, error) {
	i := d.giftIndex(giftID)
	if i < 0 {
		return Comment{}, errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", giftID)
	}
	c := Comment{
		ID:        NewCommentID(),
		UserName:  strings.TrimSpace(userName),
		Text:      text,
		Timestamp: Millis(now),
	}
	d.Gifts[i].Comments = append(d.Gifts[i].Comments, c)
	return c, nil
}

// IncrementTip sets the gift's tip count to currentTips+1. The caller
// supplies the count it last observed.
func (d *Dataset) IncrementTip(giftID string, currentTips int) error {
	i := d.giftIndex(giftID)
	if i < 0 {
		return errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", giftID)
	}
	if currentTips < 0 {
		currentTips = 0
	}
	d.Gifts[i].Tips = currentTips + 1
	return nil
}

// Seed merges users and gifts into the dataset. Records whose ID already
// exists are replaced.
func (d *Dataset) Seed(users []User, gifts []Gift) {
	for _, u := range users {
		if i := slices.IndexFunc(d.Users, func(x User) bool { return x.ID == u.ID }); i >= 0 {
			d.Users[i] = u
		} else {
			d.Users = append(d.Users, u)
		}
	}
	for _, g := range gifts {
		g = g.Clone()
		if g.Comments == nil {
			g.Comments = []Comment{}
		}
		if i := d.giftIndex(g.ID); i >= 0 {
			d.Gifts[i] = g
		} else {
			d.Gifts = append(d.Gifts, g)
		}
	}
}

func (d *Dataset) checkUsers(ids ...string) error {
	for _, id := range ids {
		if !d.hasUser(id) {
			return errors.New(errors.ErrCodeUserNotFound, "user %q not found", id)
		}
	}
	return nil
}
