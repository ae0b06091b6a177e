// Package mongostore provides a [gift.Store] backed by MongoDB.
//
// Users live in the "users" collection with a unique index on the
// lowercased name, which makes get-or-create safe under concurrent
// writers. Gifts live in "gifts" with their comments embedded.
package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/retry"
)

// Collection names.
const (
	UsersCollection = "users"
	GiftsCollection = "gifts"
)

// DefaultDatabase is used when Config.Database is empty.
const DefaultDatabase = "giftgraph"

// Config holds connection settings.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store is a MongoDB-backed gift store.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	gifts  *mongo.Collection
	now    func() time.Time
}

// userDoc is the stored form of a user.
type userDoc struct {
	gift.User `bson:",inline"`
	NameLower string `bson:"name_lower"`
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newUserDoc(u gift.User) userDoc {
	return userDoc{User: u, NameLower: nameKey(u.Name)}
}

// New connects to MongoDB and ensures the indexes exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "connect to mongo")
	}
	ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
	if err := retry.Connect(ctx, ping); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "ping mongo")
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client: client,
		users:  db.Collection(UsersCollection),
		gifts:  db.Collection(GiftsCollection),
		now:    time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_lower", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	_, err = s.gifts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create gifts index: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]gift.User, error) {
	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]gift.User, len(docs))
	for i, d := range docs {
		users[i] = d.User
	}
	return users, nil
}

func (s *Store) ListGifts(ctx context.Context) ([]gift.Gift, error) {
	cur, err := s.gifts.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find gifts: %w", err)
	}
	var gifts []gift.Gift
	if err := cur.All(ctx, &gifts); err != nil {
		return nil, fmt.Errorf("decode gifts: %w", err)
	}
	for i := range gifts {
		if gifts[i].Comments == nil {
			gifts[i].Comments = []gift.Comment{}
		}
		gift.SortComments(gifts[i].Comments)
	}
	return gifts, nil
}

func (s *Store) findUser(ctx context.Context, name string) (gift.User, bool, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"name_lower": nameKey(name)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return gift.User{}, false, nil
	}
	if err != nil {
		return gift.User{}, false, fmt.Errorf("find user: %w", err)
	}
	return doc.User, true, nil
}

func (s *Store) ResolveOrCreateUser(ctx context.Context, name string) (gift.User, error) {
	if u, ok, err := s.findUser(ctx, name); err != nil || ok {
		return u, err
	}
	u := gift.NewUser(name, s.now())
	if _, err := s.users.InsertOne(ctx, newUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another writer created the same name first.
			if existing, ok, ferr := s.findUser(ctx, name); ferr == nil && ok {
				return existing, nil
			}
		}
		return gift.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) checkUsers(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		n, err := s.users.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if n == 0 {
			return errors.New(errors.ErrCodeUserNotFound, "user %q not found", id)
		}
	}
	return nil
}

func (s *Store) RecordGift(ctx context.Context, senderID, receiverID, item string) (gift.Gift, error) {
	if err := s.checkUsers(ctx, senderID, receiverID); err != nil {
		return gift.Gift{}, err
	}
	g := gift.Gift{
		ID:         gift.NewGiftID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Item:       item,
		Timestamp:  gift.Millis(s.now()),
		Comments:   []gift.Comment{},
	}
	if _, err := s.gifts.InsertOne(ctx, g); err != nil {
		return gift.Gift{}, fmt.Errorf("insert gift: %w", err)
	}
	return g, nil
}

// updateOne applies update to the gift with id and reports a coded
// not-found error when nothing matched.
func (s *Store) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := s.gifts.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update gift: %w", err)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", id)
	}
	return nil
}

func (s *Store) UpdateGift(ctx context.Context, id, senderID, receiverID, item string) error {
	if err := s.checkUsers(ctx, senderID, receiverID); err != nil {
		return err
	}
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"item":        item,
	}})
}

func (s *Store) DeleteGift(ctx context.Context, id string) error {
	res, err := s.gifts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete gift: %w", err)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeGiftNotFound, "gift %q not found", id)
	}
	return nil
}

func (s *Store) AddComment(ctx context.Context, giftID, userName, text string) (gift.Comment, error) {
	c := gift.Comment{
		ID:        gift.NewCommentID(),
		UserName:  strings.TrimSpace(userName),
		Text:      text,
		Timestamp: gift.Millis(s.now()),
	}
	if err := s.updateOne(ctx, giftID, bson.M{"$push": bson.M{"comments": c}}); err != nil {
		return gift.Comment{}, err
	}
	return c, nil
}

func (s *Store) IncrementTip(ctx context.Context, giftID string, currentTips int) error {
	if currentTips < 0 {
		currentTips = 0
	}
	return s.updateOne(ctx, giftID, bson.M{"$set": bson.M{"tips": currentTips + 1}})
}

// Seed upserts users and gifts by ID.
func (s *Store) Seed(ctx context.Context, users []gift.User, gifts []gift.Gift) error {
	upsert := options.Replace().SetUpsert(true)
	for _, u := range users {
		if _, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, newUserDoc(u), upsert); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, g := range gifts {
		if g.Comments == nil {
			g.Comments = []gift.Comment{}
		}
		if _, err := s.gifts.ReplaceOne(ctx, bson.M{"_id": g.ID}, g, upsert); err != nil {
			return fmt.Errorf("seed gift %s: %w", g.ID, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var (
	_ gift.Store  = (*Store)(nil)
	_ gift.Seeder = (*Store)(nil)
)
