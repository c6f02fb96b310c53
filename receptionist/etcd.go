package receptionist

import (
	"context"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/andydunstall/drift/actor"
	"github.com/andydunstall/drift/pkg/log"
)

// Resolver resolves a registered actor address to a local ref. Addresses
// that cannot be resolved (such as an actor in another process the
// caller has no transport for) are skipped.
type Resolver func(addr string) (actor.Ref, bool)

// Etcd is a receptionist backed by etcd.
//
// Refs are registered as keys '<prefix>/<key>/<ref-id>' whose value is
// the ref address, attached to a lease kept alive while the process
// runs, so entries for crashed processes expire. Listings are refreshed
// from watch events on the key prefix.
//
// Since actor refs cannot cross process boundaries, listings carry
// addresses which are mapped to refs through the caller-supplied
// Resolver.
type Etcd struct {
	cli *clientv3.Client

	conf EtcdConfig

	resolve Resolver

	// mu protects cancels.
	mu      sync.Mutex
	cancels []context.CancelFunc

	logger log.Logger
}

func NewEtcd(conf EtcdConfig, resolve Resolver, logger log.Logger) (*Etcd, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   conf.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd client: %w", err)
	}
	return &Etcd{
		cli:     cli,
		conf:    conf,
		resolve: resolve,
		logger:  logger.WithSubsystem("receptionist.etcd"),
	}, nil
}

func (r *Etcd) Register(key string, ref actor.Ref) {
	ctx, cancel := context.WithCancel(context.Background())
	r.addCancel(cancel)

	go func() {
		lease, err := r.cli.Grant(ctx, r.conf.TTL)
		if err != nil {
			r.logger.Error("grant lease", zap.Error(err))
			return
		}

		etcdKey := r.entryKey(key, ref.ID())
		_, err = r.cli.Put(ctx, etcdKey, ref.Addr(), clientv3.WithLease(lease.ID))
		if err != nil {
			r.logger.Error(
				"register ref",
				zap.String("key", key),
				zap.String("addr", ref.Addr()),
				zap.Error(err),
			)
			return
		}

		keepAlive, err := r.cli.KeepAlive(ctx, lease.ID)
		if err != nil {
			r.logger.Error("keep alive", zap.Error(err))
			return
		}

		r.logger.Info(
			"registered ref",
			zap.String("key", key),
			zap.String("addr", ref.Addr()),
		)

		// Drain keep-alive responses until cancelled or the lease is
		// lost.
		for range keepAlive {
		}
	}()
}

func (r *Etcd) Subscribe(key string, sub func(Listing)) {
	ctx, cancel := context.WithCancel(context.Background())
	r.addCancel(cancel)

	go func() {
		prefix := r.prefixKey(key)

		resp, err := r.cli.Get(ctx, prefix, clientv3.WithPrefix())
		if err != nil {
			r.logger.Error("list refs", zap.String("key", key), zap.Error(err))
			return
		}

		addrs := make(map[string]string)
		for _, kv := range resp.Kvs {
			addrs[string(kv.Key)] = string(kv.Value)
		}
		sub(r.listing(key, addrs))

		watchCh := r.cli.Watch(
			ctx, prefix, clientv3.WithPrefix(),
			clientv3.WithRev(resp.Header.Revision+1),
		)
		for watchResp := range watchCh {
			if watchResp.Err() != nil {
				r.logger.Error(
					"watch refs",
					zap.String("key", key),
					zap.Error(watchResp.Err()),
				)
				return
			}
			for _, ev := range watchResp.Events {
				switch ev.Type {
				case clientv3.EventTypePut:
					addrs[string(ev.Kv.Key)] = string(ev.Kv.Value)
				case clientv3.EventTypeDelete:
					delete(addrs, string(ev.Kv.Key))
				}
			}
			sub(r.listing(key, addrs))
		}
	}()
}

func (r *Etcd) Close() error {
	r.mu.Lock()
	cancels := r.cancels
	r.cancels = nil
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return r.cli.Close()
}

func (r *Etcd) listing(key string, addrs map[string]string) Listing {
	refs := make([]actor.Ref, 0, len(addrs))
	for _, addr := range addrs {
		ref, ok := r.resolve(addr)
		if !ok {
			r.logger.Warn(
				"listed ref does not resolve",
				zap.String("key", key),
				zap.String("addr", addr),
			)
			continue
		}
		refs = append(refs, ref)
	}
	return Listing{Key: key, Refs: refs}
}

func (r *Etcd) entryKey(key string, refID string) string {
	return r.prefixKey(key) + "/" + refID
}

func (r *Etcd) prefixKey(key string) string {
	return r.conf.Prefix + "/" + key
}

func (r *Etcd) addCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels = append(r.cancels, cancel)
}

var _ Receptionist = &Etcd{}
