// Package cache keeps synthesized audio so repeated text plays without
// running the engine again. Entries live in an in-memory LRU (L1) backed by
// a zstd-compressed disk store (L2) that survives restarts.
package cache
