package lock

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/google/uuid"
)

// fakeZkConn 是内存版 zk 节点树
type fakeZkConn struct {
	mu    sync.Mutex
	nodes map[string]bool
	seq   int
}

func newFakeZkConn() *fakeZkConn {
	return &fakeZkConn{nodes: map[string]bool{"/": true}}
}

func (f *fakeZkConn) Exists(p string) (bool, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[p], &zk.Stat{}, nil
}

func (f *fakeZkConn) Create(p string, _ []byte, _ int32, _ []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodes[p] {
		return "", zk.ErrNodeExists
	}
	f.nodes[p] = true
	return p, nil
}

func (f *fakeZkConn) CreateProtectedEphemeralSequential(p string, _ []byte, _ []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	dir, base := path.Split(p)
	node := fmt.Sprintf("%s_c_%s-%s%010d", dir, uuid.NewString(), base, f.seq)
	f.nodes[node] = true
	return node, nil
}

func (f *fakeZkConn) Children(p string) ([]string, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var children []string
	for node := range f.nodes {
		if parent, name := path.Split(node); strings.TrimSuffix(parent, "/") == p && name != "" {
			children = append(children, name)
		}
	}
	return children, &zk.Stat{}, nil
}

func (f *fakeZkConn) Delete(p string, _ int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.nodes[p] {
		return zk.ErrNoNode
	}
	delete(f.nodes, p)
	return nil
}

func TestZookeeperLocker_Exclusive(t *testing.T) {
	conn := newFakeZkConn()
	locker := NewZookeeperLocker(conn)
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "order-unpaid", time.Minute)
	if err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}

	if _, err := locker.TryLock(ctx, "order-unpaid", time.Minute); err != ErrLockHeld {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	// 失败的竞争者不能留下节点
	children, _, _ := conn.Children(zkLockRoot + "/order-unpaid")
	if len(children) != 1 {
		t.Fatalf("expected 1 lock node, got %d", len(children))
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	unlock2, err := locker.TryLock(ctx, "order-unpaid", time.Minute)
	if err != nil {
		t.Fatalf("TryLock after unlock failed: %v", err)
	}
	_ = unlock2(ctx)
}

func TestZookeeperLocker_IndependentKeys(t *testing.T) {
	locker := NewZookeeperLocker(newFakeZkConn())
	ctx := context.Background()

	if _, err := locker.TryLock(ctx, "a", time.Minute); err != nil {
		t.Fatalf("lock a: %v", err)
	}
	if _, err := locker.TryLock(ctx, "b", time.Minute); err != nil {
		t.Fatalf("lock b: %v", err)
	}
}

func TestSequence(t *testing.T) {
	if got := sequence("_c_0a1b-lock-0000000042"); got != "0000000042" {
		t.Errorf("unexpected sequence %q", got)
	}
	if got := sequence("short"); got != "short" {
		t.Errorf("unexpected sequence %q", got)
	}
}

func TestNoop_AlwaysAcquires(t *testing.T) {
	var locker Locker = Noop{}
	for i := 0; i < 3; i++ {
		unlock, err := locker.TryLock(context.Background(), "k", time.Second)
		if err != nil {
			t.Fatalf("Noop TryLock failed: %v", err)
		}
		if err := unlock(context.Background()); err != nil {
			t.Fatalf("Noop unlock failed: %v", err)
		}
	}
}
