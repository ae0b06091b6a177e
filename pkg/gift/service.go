package gift

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/giftgraph/pkg/errors"
)

// GiveRequest is the input for creating or editing a gift.
type GiveRequest struct {
	Sender   string `json:"sender" validate:"username"`
	Receiver string `json:"receiver" validate:"username"`
	Item     string `json:"item" validate:"item"`
}

// CommentRequest is the input for commenting on a gift.
type CommentRequest struct {
	User string `json:"user" validate:"username"`
	Text string `json:"text" validate:"comment"`
}

func (r *GiveRequest) normalize() {
	r.Sender = strings.TrimSpace(r.Sender)
	r.Receiver = strings.TrimSpace(r.Receiver)
	r.Item = strings.TrimSpace(r.Item)
}

func (r *CommentRequest) normalize() {
	r.User = strings.TrimSpace(r.User)
	r.Text = strings.TrimSpace(r.Text)
}

// Service applies the gift rules on top of a [Store].
type Service struct {
	store    Store
	validate *validator.Validate
	logger   *log.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for mutation events.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a Service backed by store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		validate: newValidator(),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Give records a gift from sender to receiver, creating either user if the
// name is new.
func (s *Service) Give(ctx context.Context, sender, receiver, item string) (Gift, error) {
	req := GiveRequest{Sender: sender, Receiver: receiver, Item: item}
	if err := s.checkGive(&req); err != nil {
		return Gift{}, err
	}
	from, to, err := s.resolvePair(ctx, req.Sender, req.Receiver)
	if err != nil {
		return Gift{}, err
	}
	g, err := s.store.RecordGift(ctx, from.ID, to.ID, req.Item)
	if err != nil {
		return Gift{}, storeErr(err, "record gift")
	}
	s.logger.Info("gift recorded", "id", g.ID, "from", from.Name, "to", to.Name)
	return g, nil
}

// Edit changes the sender, receiver and item of an existing gift.
func (s *Service) Edit(ctx context.Context, giftID, sender, receiver, item string) error {
	req := GiveRequest{Sender: sender, Receiver: receiver, Item: item}
	if err := s.checkGive(&req); err != nil {
		return err
	}
	if _, err := s.find(ctx, giftID); err != nil {
		return err
	}
	from, to, err := s.resolvePair(ctx, req.Sender, req.Receiver)
	if err != nil {
		return err
	}
	if err := s.store.UpdateGift(ctx, giftID, from.ID, to.ID, req.Item); err != nil {
		return storeErr(err, "update gift")
	}
	s.logger.Info("gift updated", "id", giftID)
	return nil
}

// Delete removes a gift.
func (s *Service) Delete(ctx context.Context, giftID string) error {
	if err := s.store.DeleteGift(ctx, giftID); err != nil {
		return storeErr(err, "delete gift")
	}
	s.logger.Info("gift deleted", "id", giftID)
	return nil
}

// Comment adds a comment by userName to a gift. The commenter is resolved
// so that the stored name uses the user's canonical spelling.
func (s *Service) Comment(ctx context.Context, giftID, userName, text string) (Comment, error) {
	req := CommentRequest{User: userName, Text: text}
	req.normalize()
	if err := s.check(req); err != nil {
		return Comment{}, err
	}
	if _, err := s.find(ctx, giftID); err != nil {
		return Comment{}, err
	}
	u, err := s.store.ResolveOrCreateUser(ctx, req.User)
	if err != nil {
		return Comment{}, storeErr(err, "resolve %q", req.User)
	}
	c, err := s.store.AddComment(ctx, giftID, u.Name, req.Text)
	if err != nil {
		return Comment{}, storeErr(err, "add comment")
	}
	return c, nil
}

// Tip increments a gift's tip count and returns the new count.
func (s *Service) Tip(ctx context.Context, giftID string) (int, error) {
	g, err := s.find(ctx, giftID)
	if err != nil {
		return 0, err
	}
	if err := s.store.IncrementTip(ctx, giftID, g.Tips); err != nil {
		return 0, storeErr(err, "increment tip")
	}
	s.logger.Debug("gift tipped", "id", giftID, "tips", g.Tips+1)
	return g.Tips + 1, nil
}

// Snapshot reads all users and gifts.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return Snapshot{}, storeErr(err, "list users")
	}
	gifts, err := s.store.ListGifts(ctx)
	if err != nil {
		return Snapshot{}, storeErr(err, "list gifts")
	}
	return Snapshot{Users: users, Gifts: gifts}, nil
}

// Search reads all gifts and filters them with [Search].
func (s *Service) Search(ctx context.Context, query string) ([]Gift, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Search(snap.Gifts, snap.Users, query), nil
}

func (s *Service) checkGive(req *GiveRequest) error {
	req.normalize()
	if err := s.check(*req); err != nil {
		return err
	}
	if errors.SameName(req.Sender, req.Receiver) {
		return errors.New(errors.ErrCodeSelfGift, "%s cannot give a gift to themselves", req.Sender)
	}
	return nil
}

func (s *Service) resolvePair(ctx context.Context, sender, receiver string) (User, User, error) {
	from, err := s.store.ResolveOrCreateUser(ctx, sender)
	if err != nil {
		return User{}, User{}, storeErr(err, "resolve %q", sender)
	}
	to, err := s.store.ResolveOrCreateUser(ctx, receiver)
	if err != nil {
		return User{}, User{}, storeErr(err, "resolve %q", receiver)
	}
	return from, to, nil
}

func (s *Service) find(ctx context.Context, giftID string) (Gift, error) {
	gifts, err := s.store.ListGifts(ctx)
	if err != nil {
		return Gift{}, storeErr(err, "list gifts")
	}
	for _, g := range gifts {
		if g.ID == giftID {
			return g, nil
		}
	}
	return Gift{}, errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", giftID)
}

// storeErr keeps coded errors from the store as they are and wraps
// anything else as a store failure.
func storeErr(err error, format string, args ...any) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}
