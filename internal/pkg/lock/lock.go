// internal/pkg/lock/lock.go
package lock

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrLockHeld 表示锁已被其他实例持有
var ErrLockHeld = errors.New("lock is held by another instance")

// Unlock 释放已获取的锁
type Unlock func(ctx context.Context) error

// Locker 是非阻塞的互斥锁，用于保证同一时刻只有一个实例执行某个任务。
// 获取失败时返回 ErrLockHeld。
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

// Noop 在单实例部署时使用，总是获取成功
type Noop struct{}

func (Noop) TryLock(context.Context, string, time.Duration) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}
