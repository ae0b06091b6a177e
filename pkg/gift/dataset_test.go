package gift

import (
	"testing"
	"time"

	"github.com/matzehuels/giftgraph/pkg/errors"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestDatasetResolveOrCreateUser(t *testing.T) {
	var d Dataset

	alice, created := d.ResolveOrCreateUser("Alice", testNow)
	if !created {
		t.Fatal("first resolve should create")
	}
	again, created := d.ResolveOrCreateUser("  aLiCe ", testNow)
	if created {
		t.Error("second resolve should match case-insensitively")
	}
	if again.ID != alice.ID {
		t.Errorf("ID = %q, want %q", again.ID, alice.ID)
	}
	if len(d.Users) != 1 {
		t.Errorf("users = %d, want 1", len(d.Users))
	}
}

func TestDatasetRecordGift(t *testing.T) {
	var d Dataset
	a, _ := d.ResolveOrCreateUser("a", testNow)
	b, _ := d.ResolveOrCreateUser("b", testNow)

	g, err := d.RecordGift(a.ID, b.ID, "tea", testNow)
	if err != nil {
		t.Fatalf("RecordGift: %v", err)
	}
	if g.Tips != 0 || len(g.Comments) != 0 || g.Timestamp != testNow.UnixMilli() {
		t.Errorf("unexpected new gift: %+v", g)
	}

	_, err = d.RecordGift(a.ID, "ghost", "tea", testNow)
	if !errors.Is(err, errors.ErrCodeUserNotFound) {
		t.Errorf("unknown receiver error = %v, want USER_NOT_FOUND", err)
	}
}

func TestDatasetUpdatePreservesTipsAndComments(t *testing.T) {
	var d Dataset
	a, _ := d.ResolveOrCreateUser("a", testNow)
	b, _ := d.ResolveOrCreateUser("b", testNow)
	c, _ := d.ResolveOrCreateUser("c", testNow)
	g, _ := d.RecordGift(a.ID, b.ID, "tea", testNow)

	if err := d.IncrementTip(g.ID, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddComment(g.ID, "c", "nice", testNow); err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateGift(g.ID, a.ID, c.ID, "coffee"); err != nil {
		t.Fatal(err)
	}

	got := d.Snapshot().Gifts[0]
	if got.ReceiverID != c.ID || got.Item != "coffee" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Tips != 1 || len(got.Comments) != 1 {
		t.Errorf("tips/comments lost: tips=%d comments=%d", got.Tips, len(got.Comments))
	}
}

func TestDatasetNotFound(t *testing.T) {
	var d Dataset
	checks := map[string]error{
		"update": d.UpdateGift("nope", "a", "b", "x"),
		"delete": d.DeleteGift("nope"),
		"tip":    d.IncrementTip("nope", 0),
	}
	_, checks["comment"] = d.AddComment("nope", "a", "x", testNow)
	for name, err := range checks {
		if !errors.Is(err, errors.ErrCodeGiftNotFound) {
			t.Errorf("%s: error = %v, want GIFT_NOT_FOUND", name, err)
		}
	}
}

func TestDatasetIncrementTipUsesObservedCount(t *testing.T) {
	var d Dataset
	d.Seed([]User{{ID: "a"}, {ID: "b"}}, []Gift{{ID: "g", SenderID: "a", ReceiverID: "b", Tips: 4}})

	if err := d.IncrementTip("g", 4); err != nil {
		t.Fatal(err)
	}
	if d.Gifts[0].Tips != 5 {
		t.Errorf("tips = %d, want 5", d.Gifts[0].Tips)
	}
}

func TestDatasetSnapshotIsolated(t *testing.T) {
	var d Dataset
	d.Seed(nil, []Gift{{ID: "g", Comments: []Comment{{ID: "c"}}}})

	snap := d.Snapshot()
	snap.Gifts[0].Comments[0].Text = "mutated"
	if d.Gifts[0].Comments[0].Text != "" {
		t.Error("Snapshot should not share comment storage")
	}
}

func TestDatasetSeedReplacesByID(t *testing.T) {
	var d Dataset
	d.Seed([]User{{ID: "u1", Name: "old"}}, nil)
	d.Seed([]User{{ID: "u1", Name: "new"}, {ID: "u2", Name: "two"}}, nil)

	if len(d.Users) != 2 || d.Users[0].Name != "new" {
		t.Errorf("users = %+v", d.Users)
	}
}

func TestDemoData(t *testing.T) {
	users, gifts := DemoData(testNow)
	if len(users) != 5 || len(gifts) != 6 {
		t.Fatalf("demo data = %d users, %d gifts", len(users), len(gifts))
	}
	ids := map[string]bool{}
	for _, u := range users {
		ids[u.ID] = true
	}
	comments := 0
	for _, g := range gifts {
		if !ids[g.SenderID] || !ids[g.ReceiverID] {
			t.Errorf("gift %s references unknown user", g.ID)
		}
		if g.SenderID == g.ReceiverID {
			t.Errorf("gift %s is a self-gift", g.ID)
		}
		comments += len(g.Comments)
	}
	if comments != 4 {
		t.Errorf("comments = %d, want 4", comments)
	}
}
