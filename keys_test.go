package ajo

import "testing"

func TestKeyBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"group", GroupKey(7), "group:7"},
		{"group status", GroupStatusKey(7), "group:7:status"},
		{"group members", GroupMembersKey(7), "group:7:members"},
		{"group cycle", GroupCycleKey(7, 3), "group:7:cycle:3"},
		{"group payouts", GroupPayoutsKey(7), "group:7:payouts"},
		{"user groups", UserGroupsKey("GABC123"), "user:GABC123:groups"},
		{"user transactions", UserTransactionsKey("GABC123"), "user:GABC123:transactions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestKeyBuilders_NoCollisions(t *testing.T) {
	keys := []string{
		GroupKey(7),
		GroupStatusKey(7),
		GroupMembersKey(7),
		GroupCycleKey(7, 0),
		GroupPayoutsKey(7),
		UserGroupsKey("7"),
		UserTransactionsKey("7"),
	}
	seen := make(map[string]int)
	for i, k := range keys {
		if prev, ok := seen[k]; ok {
			t.Errorf("builders %d and %d both produce %q", prev, i, k)
		}
		seen[k] = i
	}
}

func TestTagBuilders(t *testing.T) {
	if got := TagGroup(7); got != "group:7" {
		t.Errorf("TagGroup(7) = %q, want group:7", got)
	}
	if got := TagUser("GABC"); got != "user:GABC" {
		t.Errorf("TagUser(GABC) = %q, want user:GABC", got)
	}
	if TagGroups != "groups" || TagTransactions != "transactions" {
		t.Errorf("tag constants = %q, %q; want groups, transactions", TagGroups, TagTransactions)
	}
}
