package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Manager layers the memory cache over the disk cache. Hits on disk are
// promoted to memory; writes go to memory immediately and to disk in the
// background.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
	config Config

	pending sync.WaitGroup
	stop    chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	stats struct {
		MemoryHits int64
		DiskHits   int64
		Misses     int64
		Cleanups   int64
	}
}

// ManagerStats summarizes both tiers.
type ManagerStats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
	Cleanups   int64
	HitRate    float64
	Memory     Stats
	Disk       Stats
}

// NewManager opens the cache described by config.
func NewManager(config Config) (*Manager, error) {
	if config.DiskPath == "" {
		return nil, errors.New("cache directory is required")
	}
	disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	m := &Manager{
		memory: NewMemoryCache(config.MemoryCapacity),
		disk:   disk,
		config: config,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go m.cleanupLoop()
	} else {
		close(m.done)
	}

	log.Debug("cache opened", "dir", config.DiskPath,
		"memory", humanize.Bytes(uint64(config.MemoryCapacity)),
		"disk", humanize.Bytes(uint64(config.DiskCapacity)),
		"used", humanize.Bytes(uint64(disk.Size())))
	return m, nil
}

// Get looks up key in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.count(func() { m.stats.MemoryHits++ })
		return data, true
	}
	if data, ok := m.disk.Get(key); ok {
		m.count(func() { m.stats.DiskHits++ })
		_ = m.memory.Put(key, data)
		return data, true
	}
	m.count(func() { m.stats.Misses++ })
	return nil, false
}

// Put stores value in memory and schedules the disk write.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", err)
	}

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		if err := m.disk.Put(key, value); err != nil {
			log.Warn("disk cache write failed", "key", key, "size", humanize.Bytes(uint64(len(value))), "err", err)
		}
	}()
	return nil
}

// Flush waits for scheduled disk writes.
func (m *Manager) Flush() {
	m.pending.Wait()
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	m.Flush()
	return errors.Join(m.memory.Delete(key), m.disk.Delete(key))
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.Flush()
	return errors.Join(m.memory.Clear(), m.disk.Clear())
}

// Stats returns counters for both tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := ManagerStats{
		MemoryHits: m.stats.MemoryHits,
		DiskHits:   m.stats.DiskHits,
		Misses:     m.stats.Misses,
		Cleanups:   m.stats.Cleanups,
	}
	m.mu.Unlock()

	if total := s.MemoryHits + s.DiskHits + s.Misses; total > 0 {
		s.HitRate = float64(s.MemoryHits+s.DiskHits) / float64(total)
	}
	s.Memory = m.memory.Stats()
	s.Disk = m.disk.Stats()
	return s
}

// Cleanup drops entries older than the configured TTL.
func (m *Manager) Cleanup() {
	m.count(func() { m.stats.Cleanups++ })
	if m.config.TTL <= 0 {
		return
	}
	removed := m.disk.RemoveOlderThan(time.Now().Add(-m.config.TTL))
	pruned := m.memory.Prune(m.config.TTL)
	if removed+pruned > 0 {
		log.Debug("cache cleanup", "disk_removed", removed, "memory_pruned", pruned)
	}
}

// Close stops the cleanup loop, waits for disk writes, and saves the index.
func (m *Manager) Close() error {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	<-m.done
	m.Flush()
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) cleanupLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) count(f func()) {
	m.mu.Lock()
	f()
	m.mu.Unlock()
}
