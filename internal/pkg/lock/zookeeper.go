// internal/pkg/lock/zookeeper.go
package lock

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const zkLockRoot = "/sky/locks" // 所有任务锁的根节点

// ZkConn 是锁用到的 zk.Conn 方法子集
type ZkConn interface {
	Exists(path string) (bool, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	CreateProtectedEphemeralSequential(path string, data []byte, acl []zk.ACL) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	Delete(path string, version int32) error
}

// ZookeeperLocker 使用临时顺序节点实现，序号最小者持有锁。
// 会话断开时临时节点自动删除，ttl 参数不起作用。
type ZookeeperLocker struct {
	conn ZkConn
}

func NewZookeeperLocker(conn ZkConn) *ZookeeperLocker {
	return &ZookeeperLocker{conn: conn}
}

// ConnectZookeeper 建立 zk 会话
func ConnectZookeeper(servers []string, sessionTimeout time.Duration) (*zk.Conn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect zookeeper")
	}
	return conn, nil
}

func (l *ZookeeperLocker) TryLock(_ context.Context, key string, _ time.Duration) (Unlock, error) {
	lockPath := zkLockRoot + "/" + key
	if err := l.ensurePath(lockPath); err != nil {
		return nil, err
	}

	// 格式为: /sky/locks/<key>/_c_<guid>-lock-0000000001
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(lockPath+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sequential node")
	}

	children, _, err := l.conn.Children(lockPath)
	if err != nil {
		_ = l.conn.Delete(nodePath, -1)
		return nil, errors.Wrap(err, "failed to get children nodes")
	}
	// protected 节点带 guid 前缀，只能按序号排序
	sort.Slice(children, func(i, j int) bool { return sequence(children[i]) < sequence(children[j]) })

	myNodeName := strings.TrimPrefix(nodePath, lockPath+"/")
	if len(children) == 0 || children[0] != myNodeName {
		if err := l.conn.Delete(nodePath, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
			return nil, errors.Wrap(err, "failed to delete losing node")
		}
		return nil, ErrLockHeld
	}

	return func(context.Context) error {
		err := l.conn.Delete(nodePath, -1)
		if err != nil && !errors.Is(err, zk.ErrNoNode) {
			return errors.Wrap(err, "failed to delete lock node")
		}
		return nil
	}, nil
}

// ensurePath 逐级创建持久节点
func (l *ZookeeperLocker) ensurePath(path string) error {
	current := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		current += "/" + part
		exists, _, err := l.conn.Exists(current)
		if err != nil {
			return errors.Wrapf(err, "failed to check node %s", current)
		}
		if exists {
			continue
		}
		if _, err := l.conn.Create(current, []byte(""), 0, zk.WorldACL(zk.PermAll)); err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return errors.Wrapf(err, "failed to create node %s", current)
		}
	}
	return nil
}

// sequence 取节点名末尾的 10 位序号
func sequence(name string) string {
	if len(name) < 10 {
		return name
	}
	return name[len(name)-10:]
}
