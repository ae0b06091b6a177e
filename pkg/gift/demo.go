package gift

import "time"

// DemoData returns a small circle of five users and six gifts, timestamped
// relative to now. It is what `giftgraph seed` loads.
func DemoData(now time.Time) ([]User, []Gift) {
	ago := func(d time.Duration) int64 { return Millis(now.Add(-d)) }
	const day = 24 * time.Hour

	users := []User{
		{ID: "u1", Name: "アリス", Avatar: AvatarURL("alice"), Color: "#FF6B6B", CreatedAt: ago(30 * day)},
		{ID: "u2", Name: "ボブ", Avatar: AvatarURL("bob"), Color: "#4ECDC4", CreatedAt: ago(30*day - time.Minute)},
		{ID: "u3", Name: "チャーリー", Avatar: AvatarURL("charlie"), Color: "#45B7D1", CreatedAt: ago(30*day - 2*time.Minute)},
		{ID: "u4", Name: "ダイアナ", Avatar: AvatarURL("diana"), Color: "#F9A826", CreatedAt: ago(30*day - 3*time.Minute)},
		{ID: "u5", Name: "イブ", Avatar: AvatarURL("eve"), Color: "#9B59B6", CreatedAt: ago(30*day - 4*time.Minute)},
	}

	gifts := []Gift{
		{
			ID: "g1", SenderID: "u1", ReceiverID: "u2", Item: "コーヒー", Timestamp: ago(2 * day), Tips: 5,
			Comments: []Comment{
				{ID: "c1", UserName: "チャーリー", Text: "いいなー！僕も飲みたい☕️", Timestamp: ago(36 * time.Hour)},
				{ID: "c2", UserName: "ボブ", Text: "美味しかったよ！ありがとう！", Timestamp: ago(day)},
			},
		},
		{ID: "g2", SenderID: "u2", ReceiverID: "u3", Item: "本", Timestamp: ago(day), Tips: 2, Comments: []Comment{}},
		{
			ID: "g3", SenderID: "u3", ReceiverID: "u1", Item: "ランチ", Timestamp: ago(5 * time.Hour), Tips: 12,
			Comments: []Comment{
				{ID: "c3", UserName: "ダイアナ", Text: "どこのお店行ったの？", Timestamp: ago(2 * time.Hour)},
			},
		},
		{ID: "g4", SenderID: "u4", ReceiverID: "u5", Item: "観葉植物", Timestamp: ago(2 * time.Hour), Tips: 0, Comments: []Comment{}},
		{
			ID: "g5", SenderID: "u5", ReceiverID: "u1", Item: "プロジェクトの手伝い", Timestamp: ago(30 * time.Minute), Tips: 8,
			Comments: []Comment{
				{ID: "c4", UserName: "アリス", Text: "本当に助かりました😭", Timestamp: ago(10 * time.Minute)},
			},
		},
		{ID: "g6", SenderID: "u2", ReceiverID: "u4", Item: "映画のチケット", Timestamp: ago(15 * time.Minute), Tips: 1, Comments: []Comment{}},
	}
	return users, gifts
}
