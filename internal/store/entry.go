package store

import "time"

// Entry is one cached value with its expiry and invalidation metadata.
type Entry struct {
	Key          string
	Value        any
	Size         int // serialized bytes at admission
	CreatedAt    time.Time
	LastAccessed time.Time
	TTL          time.Duration // <= 0 means no expiry
	Tags         []string
	Version      string
	ETag         string
}

// EntryInfo describes one cache entry for health reporting.
type EntryInfo struct {
	Key     string
	Age     time.Duration
	TTL     time.Duration
	Version string
	ETag    string
	Size    int
}

// TagInfo lists the keys indexed under one tag.
type TagInfo struct {
	Tag  string
	Keys []string
}
