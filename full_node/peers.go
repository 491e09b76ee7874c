package full_node

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/Luismorlan/ape_coin/service"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

var ErrPeerExists = errors.New("peer already exist")

// Timeout of every call made to a peer.
const peerTimeout = 30 * time.Second

type Address struct {
	// What ip address peer fullnode is using.
	IpAddr string
	// What TCP Port peer full node is running on.
	Port string
}

func (a Address) String() string {
	return net.JoinHostPort(a.IpAddr, a.Port)
}

type Peer struct {
	// A service client established to connect to other full node.
	client service.FullNodeServiceClient
	conn   *grpc.ClientConn
	// Peer address
	addr Address
}

// Stringer function of peer.
func (p Peer) String() string {
	return p.addr.String()
}

func (p Peer) Addr() Address {
	return p.addr
}

// PeerSet holds one grpc connection per peer and drops peers whose connection
// stays down.
type PeerSet struct {
	// Create a mutex protect peers addition and deletion.
	pm    sync.RWMutex
	peers []Peer

	dialOpts []grpc.DialOption
	// First wait of the dead connection check, doubled on every failed check.
	gcBase    time.Duration
	gcRetries int
	logger    *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

type PeerSetOption func(*PeerSet)

// WithDialOptions adds options used when dialing peers.
func WithDialOptions(opts ...grpc.DialOption) PeerSetOption {
	return func(s *PeerSet) {
		s.dialOpts = append(s.dialOpts, opts...)
	}
}

// WithGC sets the first wait and the number of failed checks before a peer is
// removed.
func WithGC(base time.Duration, retries int) PeerSetOption {
	return func(s *PeerSet) {
		s.gcBase = base
		s.gcRetries = retries
	}
}

func NewPeerSet(logger *zap.Logger, opts ...PeerSetOption) *PeerSet {
	s := &PeerSet{
		dialOpts:  []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		gcBase:    3 * time.Second,
		gcRetries: 3,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Return all current peers.
func (s *PeerSet) GetAllPeers() []Peer {
	s.pm.RLock()
	defer s.pm.RUnlock()
	peers := make([]Peer, len(s.peers))
	copy(peers, s.peers)
	return peers
}

func (s *PeerSet) Len() int {
	s.pm.RLock()
	defer s.pm.RUnlock()
	return len(s.peers)
}

// AddPeer connects to addr. The connection is kept until the peer is removed.
func (s *PeerSet) AddPeer(addr Address) (service.FullNodeServiceClient, error) {
	s.pm.Lock()
	defer s.pm.Unlock()
	for _, p := range s.peers {
		if p.addr == addr {
			return nil, errors.Wrap(ErrPeerExists, addr.String())
		}
	}

	conn, err := grpc.NewClient(addr.String(), s.dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial peer %s", addr)
	}
	conn.Connect()
	client := service.NewFullNodeServiceClient(conn)
	s.peers = append(s.peers, Peer{
		client: client,
		conn:   conn,
		addr:   addr,
	})
	s.logger.Info("add peer", zap.Stringer("peer", addr))

	go s.gc(conn, addr)
	return client, nil
}

// gc reclaims the connection once it failed enough consecutive checks. The wait
// between checks backs off exponentially to avoid overloading any peer.
func (s *PeerSet) gc(conn *grpc.ClientConn, addr Address) {
	// How many times we already tried.
	try := 0
	wait := s.gcBase
	for {
		select {
		case <-s.stop:
			return
		case <-time.After(wait):
		}
		switch conn.GetState() {
		case connectivity.Ready, connectivity.Idle:
			// Reset on any successful check.
			try = 0
			wait = s.gcBase
			continue
		case connectivity.Shutdown:
			return
		}
		try++
		// Exponential backoff for retry.
		wait *= 2
		if try >= s.gcRetries {
			break
		}
	}
	s.logger.Info("close dead peer", zap.Stringer("peer", addr))
	s.RemovePeer(addr)
}

// Remove a peer from the peer list and close its connection.
func (s *PeerSet) RemovePeer(addr Address) bool {
	s.pm.Lock()
	defer s.pm.Unlock()
	for i := 0; i < len(s.peers); i++ {
		if s.peers[i].addr == addr {
			// Find the peer in peer list and remove it.
			s.peers[i].conn.Close()
			s.peers = append(s.peers[:i], s.peers[i+1:]...)
			return true
		}
	}
	return false
}

// Broadcast calls fn for every peer, each on its own goroutine with its own
// timeout. It does not wait for the calls.
func (s *PeerSet) Broadcast(method string, fn func(ctx context.Context, client service.FullNodeServiceClient) error) {
	for _, peer := range s.GetAllPeers() {
		go func(peer Peer) {
			ctx, cancel := context.WithTimeout(context.Background(), peerTimeout)
			defer cancel()
			if err := fn(ctx, peer.client); err != nil {
				s.logger.Warn("broadcast to peer failed",
					zap.String("method", method),
					zap.Stringer("peer", peer),
					zap.Error(err))
			}
		}(peer)
	}
}

// Close drops every peer.
func (s *PeerSet) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.pm.Lock()
	defer s.pm.Unlock()
	for _, p := range s.peers {
		p.conn.Close()
	}
	s.peers = nil
}
