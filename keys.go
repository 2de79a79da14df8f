package ajo

import "fmt"

// Key builders produce the canonical cache keys for dashboard entities.
// Each entity kind owns a distinct prefix, so keys from different builders
// never collide.

// GroupKey returns the cache key for a group's core record.
func GroupKey(id uint64) string {
	return fmt.Sprintf("group:%d", id)
}

// GroupStatusKey returns the cache key for a group's lifecycle status.
func GroupStatusKey(id uint64) string {
	return fmt.Sprintf("group:%d:status", id)
}

// GroupMembersKey returns the cache key for a group's member list.
func GroupMembersKey(id uint64) string {
	return fmt.Sprintf("group:%d:members", id)
}

// GroupCycleKey returns the cache key for one contribution cycle of a group.
func GroupCycleKey(id uint64, cycle uint32) string {
	return fmt.Sprintf("group:%d:cycle:%d", id, cycle)
}

// GroupPayoutsKey returns the cache key for a group's payout history.
func GroupPayoutsKey(id uint64) string {
	return fmt.Sprintf("group:%d:payouts", id)
}

// UserGroupsKey returns the cache key for the groups a wallet belongs to.
func UserGroupsKey(addr string) string {
	return fmt.Sprintf("user:%s:groups", addr)
}

// UserTransactionsKey returns the cache key for a wallet's transaction feed.
func UserTransactionsKey(addr string) string {
	return fmt.Sprintf("user:%s:transactions", addr)
}

// Tags for bulk invalidation. Tags never serve lookups.
const (
	// TagGroups marks every group-derived entry.
	TagGroups = "groups"

	// TagTransactions marks transaction feed entries.
	TagTransactions = "transactions"
)

// TagGroup returns the invalidation tag covering one group's entries.
func TagGroup(id uint64) string {
	return fmt.Sprintf("group:%d", id)
}

// TagUser returns the invalidation tag covering one wallet's entries.
func TagUser(addr string) string {
	return fmt.Sprintf("user:%s", addr)
}
