package filecache

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrBroadcastFailed is returned by every member when the elected reader
	// could not read or store the requested path.
	ErrBroadcastFailed = errors.New("broadcast failed")
	// ErrOutOfOrder is returned by a follower that received content for a
	// different path than it asked for.
	ErrOutOfOrder = errors.New("broadcast read out of order")
)

// Negative lengths signal failure to followers.
const (
	lengthFailed   = -1
	lengthNotFound = -2
)

// broadcast is one leader-to-follower message: the result of a read, or of
// a store when store is set. reason carries the leader's failure text.
type broadcast struct {
	path   string
	store  bool
	length int
	data   []byte
	reason string
}

// Group elects rank 0 as the only reader of storage and broadcasts what it
// read to ranks 1..n-1.
type Group struct {
	inner Fetcher
	links []chan broadcast // links[r-1] feeds rank r
}

// NewGroup creates a broadcast group of size members reading through inner.
func NewGroup(size int, inner Fetcher) *Group {
	if size < 1 {
		panic(fmt.Sprintf("broadcast group size must be positive, got %d", size))
	}
	if inner == nil {
		inner = LocalFetcher{}
	}
	g := &Group{inner: inner, links: make([]chan broadcast, size-1)}
	for i := range g.links {
		g.links[i] = make(chan broadcast, 1)
	}
	return g
}

func (g *Group) Size() int { return len(g.links) + 1 }

// Member returns the fetcher for one rank. Each rank's fetcher must be used
// by exactly one goroutine.
func (g *Group) Member(rank int) Fetcher {
	if rank < 0 || rank >= g.Size() {
		panic(fmt.Sprintf("rank %d outside broadcast group of size %d", rank, g.Size()))
	}
	return &member{group: g, rank: rank}
}

// Run starts one goroutine per rank, each with its own fetcher, and waits for
// all of them. The first error cancels ctx for the others.
func (g *Group) Run(ctx context.Context, fn func(ctx context.Context, rank int, f Fetcher) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < g.Size(); rank++ {
		f := g.Member(rank)
		eg.Go(func() error { return fn(ctx, rank, f) })
	}
	return eg.Wait()
}

type member struct {
	group *Group
	rank  int
}

func (m *member) Fetch(ctx context.Context, path string) ([]byte, error) {
	if m.rank == 0 {
		return m.lead(ctx, path)
	}
	return m.follow(ctx, path)
}

func (m *member) lead(ctx context.Context, path string) ([]byte, error) {
	data, err := m.group.inner.Fetch(ctx, path)
	msg := broadcast{path: path, length: len(data), data: data}
	if err != nil {
		msg = failure(path, false, err)
	}
	if sendErr := m.send(ctx, msg); sendErr != nil {
		return nil, sendErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBroadcastFailed, err)
	}
	return data, nil
}

func failure(path string, store bool, err error) broadcast {
	msg := broadcast{path: path, store: store, length: lengthFailed, reason: err.Error()}
	if errors.Is(err, ErrNotFound) {
		msg.length = lengthNotFound
	}
	return msg
}

func (m *member) send(ctx context.Context, msg broadcast) error {
	for _, link := range m.group.links {
		select {
		case link <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	logrus.Debugf("filecache: rank 0 broadcast %s (store %t, length %d) to %d followers",
		msg.path, msg.store, msg.length, len(m.group.links))
	return nil
}

func (m *member) receive(ctx context.Context, path string, store bool) (broadcast, error) {
	var msg broadcast
	select {
	case msg = <-m.group.links[m.rank-1]:
	case <-ctx.Done():
		return msg, ctx.Err()
	}
	if msg.path != path || msg.store != store {
		return msg, fmt.Errorf("rank %d asked for %s %s, leader sent %s %s: %w",
			m.rank, op(store), path, op(msg.store), msg.path, ErrOutOfOrder)
	}
	return msg, nil
}

func op(store bool) string {
	if store {
		return "store"
	}
	return "read"
}

func (m *member) follow(ctx context.Context, path string) ([]byte, error) {
	msg, err := m.receive(ctx, path, false)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.length == lengthNotFound:
		return nil, fmt.Errorf("fetch %s: %w: %w", path, ErrBroadcastFailed, ErrNotFound)
	case msg.length < 0:
		return nil, fmt.Errorf("fetch %s: %w", path, ErrBroadcastFailed)
	}
	return msg.data[:msg.length], nil
}

// Store writes through the leader only. The leader broadcasts the outcome,
// so every member returns success or failure together.
func (m *member) Store(ctx context.Context, path string, data []byte) error {
	if m.rank != 0 {
		msg, err := m.receive(ctx, path, true)
		if err != nil {
			return err
		}
		if msg.length < 0 {
			return fmt.Errorf("store %s: %w: %s", path, ErrBroadcastFailed, msg.reason)
		}
		return nil
	}
	var err error
	if s, ok := m.group.inner.(Storer); ok {
		err = s.Store(ctx, path, data)
	} else {
		err = fmt.Errorf("store %s: fetcher %T cannot write", path, m.group.inner)
	}
	msg := broadcast{path: path, store: true}
	if err != nil {
		msg = failure(path, true, err)
	}
	if sendErr := m.send(ctx, msg); sendErr != nil {
		return sendErr
	}
	return err
}

// relayed reports whether this member receives content from the leader
// instead of reading storage.
func (m *member) relayed() bool { return m.rank != 0 }
