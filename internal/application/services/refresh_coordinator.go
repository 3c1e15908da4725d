package services

import (
	"context"
	"fmt"
	"sync"

	"tokengate.dev/cli/internal/core/domain"
	"tokengate.dev/cli/internal/core/ports"
)

// refreshSlot is the shared handle for one in-flight refresh. The leader and
// every follower block on done; the refresh task writes the result fields and
// closes done exactly once.
type refreshSlot struct {
	staleGen domain.Generation
	waiters  int

	done chan struct{}

	// Written by the refresh task before done is closed, read-only after.
	cred domain.Credential
	gen  domain.Generation
	err  error
}

// refreshCoordinator owns the current credential, its generation, and the
// at-most-one in-flight refresh slot. State transitions happen under mu;
// provider calls never hold it.
type refreshCoordinator struct {
	provider  ports.CredentialProvider
	queueSize int

	initMu sync.Mutex // serializes the one-time initial load

	mu          sync.Mutex
	initialized bool
	cred        *domain.Credential
	gen         domain.Generation
	slot        *refreshSlot
}

func newRefreshCoordinator(provider ports.CredentialProvider, queueSize int) *refreshCoordinator {
	return &refreshCoordinator{provider: provider, queueSize: queueSize}
}

// EnsureInitialized performs the one-time initial credential load. A failed
// load leaves the coordinator uninitialized so a later request retries it.
func (c *refreshCoordinator) EnsureInitialized(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if initialized {
		return nil
	}

	cred, err := c.provider.LoadInitial(ctx)
	if err != nil {
		return fmt.Errorf("load initial credential: %w", err)
	}

	c.mu.Lock()
	c.cred = cred
	c.initialized = true
	c.mu.Unlock()
	return nil
}

// Snapshot returns the current credential and generation.
func (c *refreshCoordinator) Snapshot() (*domain.Credential, domain.Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cred, c.gen
}

// Refresh obtains a credential newer than staleGen. The first caller for a
// generation becomes the leader and starts the refresh task; later callers
// join as followers, up to queueSize waiters in total. A caller whose
// generation was already superseded gets the current credential back without
// any provider call and without consuming a queue slot.
func (c *refreshCoordinator) Refresh(ctx context.Context, staleGen domain.Generation) (*domain.Credential, domain.Generation, error) {
	c.mu.Lock()
	if c.gen > staleGen {
		cred, gen := c.cred, c.gen
		c.mu.Unlock()
		return cred, gen, nil
	}

	slot := c.slot
	if slot == nil {
		slot = &refreshSlot{staleGen: staleGen, waiters: 1, done: make(chan struct{})}
		c.slot = slot
		var previous string
		if c.cred != nil {
			previous = c.cred.Value
		}
		// Detached from the caller's context: cancelling the leader must not
		// abort a refresh that followers are waiting on.
		go c.runRefresh(context.WithoutCancel(ctx), slot, previous)
	} else {
		if slot.waiters >= c.queueSize {
			c.mu.Unlock()
			return nil, 0, ErrRefreshQueueFull
		}
		slot.waiters++
	}
	c.mu.Unlock()

	select {
	case <-slot.done:
		c.detach(slot)
		if slot.err != nil {
			return nil, 0, slot.err
		}
		cred := slot.cred
		return &cred, slot.gen, nil
	case <-ctx.Done():
		c.detach(slot)
		return nil, 0, ctx.Err()
	}
}

// runRefresh executes the provider call outside the critical section, then
// installs the result and wakes every waiter.
func (c *refreshCoordinator) runRefresh(ctx context.Context, slot *refreshSlot, previous string) {
	cred, err := c.provider.Refresh(ctx, previous)

	c.mu.Lock()
	c.slot = nil
	if err != nil {
		slot.err = fmt.Errorf("refresh credential: %w", err)
	} else {
		c.cred = &cred
		c.gen++
		slot.cred = cred
		slot.gen = c.gen
	}
	close(slot.done)
	c.mu.Unlock()
}

// detach releases this waiter's queue admission.
func (c *refreshCoordinator) detach(slot *refreshSlot) {
	c.mu.Lock()
	slot.waiters--
	c.mu.Unlock()
}
