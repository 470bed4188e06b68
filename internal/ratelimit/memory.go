// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// memoryEntry is one client's token bucket.
type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-key token bucket limiter held in process memory.
type Memory struct {
	mu      sync.Mutex
	clients map[string]*memoryEntry
	every   rate.Limit
	burst   int
	idle    time.Duration
	stopCh  chan struct{}
}

// NewMemory allows limit requests per window for each key, refilling
// evenly across the window. A background goroutine drops keys idle for
// longer than a window; call Stop to end it.
func NewMemory(limit int, window time.Duration) *Memory {
	m := &Memory{
		clients: make(map[string]*memoryEntry),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    window,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.cleanup()
			case <-m.stopCh:
				return
			}
		}
	}()

	return m
}

// Stop terminates the background cleanup goroutine.
func (m *Memory) Stop() {
	close(m.stopCh)
}

// Allow reports whether key still has a token. It never fails.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	entry, ok := m.clients[key]
	if !ok {
		entry = &memoryEntry{limiter: rate.NewLimiter(m.every, m.burst)}
		m.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	m.mu.Unlock()

	return entry.limiter.Allow(), nil
}

// cleanup removes keys with no recent activity.
func (m *Memory) cleanup() {
	cutoff := time.Now().Add(-m.idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(m.clients, key)
		}
	}
}
