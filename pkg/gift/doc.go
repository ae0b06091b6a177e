// Package gift defines the records giftgraph tracks and the store contract
// that persists them.
//
// # Records
//
//   - [User]: a person who gives or receives gifts, identified by ID
//   - [Gift]: a directed, timestamped transfer from one user to another
//   - [Comment]: a note attached to a gift, ordered oldest first
//
// Timestamps are Unix epoch milliseconds.
//
// # Stores
//
// [Store] is the persistence contract. Implementations live in the
// memstore, filestore and mongostore subpackages. Shared mutation logic
// for the in-process stores is provided by [Dataset].
//
// # Service
//
// [Service] is the entry point used by the CLI and the HTTP API. It trims
// and validates input, rejects self-gifts by case-insensitive name
// comparison, and resolves names to users before touching gifts:
//
//	svc := gift.NewService(store)
//	g, err := svc.Give(ctx, "Alice", "Bob", "coffee")
//	if errors.Is(err, errors.ErrCodeSelfGift) {
//	    // sender and receiver are the same person
//	}
package gift
