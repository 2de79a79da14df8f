package simulation

import (
	"fmt"
	"math/rand"

	ajo "github.com/soma-enyi/soroban-ajo"
)

// Request is a single cache lookup in a workload.
type Request struct {
	// Key is the cache key to fetch.
	Key string `json:"key"`

	// Op names the backend operation for circuit breaker grouping.
	Op string `json:"op,omitempty"`
}

// WorkloadConfig controls synthetic workload generation.
type WorkloadConfig struct {
	// Requests is the total number of lookups to generate.
	Requests int

	// Groups is the number of distinct savings groups in the pool.
	Groups int

	// Users is the number of distinct wallet addresses in the pool.
	Users int

	// Seed makes the request sequence reproducible.
	// Zero selects a fixed default seed.
	Seed int64
}

func (c WorkloadConfig) withDefaults() WorkloadConfig {
	if c.Requests <= 0 {
		c.Requests = 1000
	}
	if c.Groups <= 0 {
		c.Groups = 20
	}
	if c.Users <= 0 {
		c.Users = 50
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	return c
}

// SyntheticWorkload generates a request sequence resembling dashboard
// traffic: group lookups follow a Zipf distribution so a few popular
// groups dominate, with occasional per-user queries mixed in.
func SyntheticWorkload(cfg WorkloadConfig) []Request {
	cfg = cfg.withDefaults()

	rng := rand.New(rand.NewSource(cfg.Seed))
	zipf := rand.NewZipf(rng, 1.2, 1, uint64(cfg.Groups-1))

	requests := make([]Request, 0, cfg.Requests)
	for i := 0; i < cfg.Requests; i++ {
		group := zipf.Uint64() + 1

		var req Request
		switch roll := rng.Float64(); {
		case roll < 0.30:
			req = Request{Key: ajo.GroupKey(group), Op: "group"}
		case roll < 0.50:
			req = Request{Key: ajo.GroupStatusKey(group), Op: "group"}
		case roll < 0.65:
			req = Request{Key: ajo.GroupMembersKey(group), Op: "group"}
		case roll < 0.80:
			cycle := uint32(rng.Intn(12) + 1)
			req = Request{Key: ajo.GroupCycleKey(group, cycle), Op: "group"}
		case roll < 0.90:
			req = Request{Key: ajo.GroupPayoutsKey(group), Op: "group"}
		default:
			addr := syntheticAddress(rng.Intn(cfg.Users))
			req = Request{Key: ajo.UserGroupsKey(addr), Op: "user"}
		}
		requests = append(requests, req)
	}

	return requests
}

// syntheticAddress builds a fake Stellar account ID for user n.
func syntheticAddress(n int) string {
	return fmt.Sprintf("GBENCH%050d", n)
}
