// Package store defines the remote replicated document store the service
// reconciles against. The remote copy is the cross-client source of truth;
// an external kiosk device writes redemptions and punch events to the same
// collections, so every subscriber sees the same stream of snapshots.
package store

import (
	"context"
	"errors"
)

// Collection names shared with the kiosk device bridge.
const (
	ColEmployees     = "employees"
	ColCoupons       = "coupons"
	ColContractors   = "contractors"
	ColNotifications = "notifications"
	ColGuestRequests = "guestCouponRequests"
	ColMenus         = "menus"
	ColPunchEvents   = "punchEvents"
)

var ErrNotFound = errors.New("document not found")

// Document is a raw JSON document as stored in a collection.
type Document []byte

// Snapshot is the full content of a collection keyed by document id.
type Snapshot map[string]Document

// SnapshotFunc receives collection snapshots. Calls are delivered in order
// per collection; each snapshot replaces the previous one wholesale.
type SnapshotFunc func(snapshot Snapshot)

// Remote is the replicated store contract. Implementations must treat the
// remote copy as authoritative: GetAll/Query read current remote state,
// Upsert/Delete are last-writer-wins per document, and Subscribe pushes a
// fresh full snapshot after every observed change.
type Remote interface {
	GetAll(ctx context.Context, collection string) (Snapshot, error)
	Upsert(ctx context.Context, collection, key string, doc Document) error
	Delete(ctx context.Context, collection, key string) error

	// QueryEqual returns documents whose top-level field equals value.
	QueryEqual(ctx context.Context, collection, field, value string) ([]Document, error)

	// Latest returns up to limit documents ordered by the named timestamp
	// field, most recent first. Used for the kiosk punch-event feed.
	Latest(ctx context.Context, collection, orderField string, limit int) ([]Document, error)

	// Subscribe registers fn for snapshot delivery and returns a cancel
	// function. fn is also invoked once with the current snapshot.
	Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (func(), error)
}
