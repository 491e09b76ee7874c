package full_node

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/Luismorlan/ape_coin/chain"
	"github.com/Luismorlan/ape_coin/config"
	"github.com/Luismorlan/ape_coin/miner"
	"github.com/Luismorlan/ape_coin/service"
	"github.com/Luismorlan/ape_coin/txpool"
	"github.com/Luismorlan/ape_coin/visualize"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// FullNodeServer exposes a FullNode over grpc and relays transactions and
// blocks to its peers.
type FullNodeServer struct {
	service.UnimplementedFullNodeServiceServer
	// A bunch of peers that we have grpc connection to.
	peers *PeerSet
	// Where this node is reachable by its peers.
	addr Address

	fullNode *FullNode
	logger   *zap.Logger
}

// Create a new full node server together with its node and peer set.
func NewFullNodeServer(c config.AppConfig, sk *btcec.PrivateKey, addr Address, reg prometheus.Registerer, logger *zap.Logger, opts ...PeerSetOption) (*FullNodeServer, error) {
	peers := NewPeerSet(logger.Named("peers"), opts...)
	node, err := NewFullNode(c, sk, NewPeerSynchronizer(peers, logger.Named("sync")), reg, logger)
	if err != nil {
		return nil, err
	}
	return &FullNodeServer{
		peers:    peers,
		addr:     addr,
		fullNode: node,
		logger:   logger,
	}, nil
}

func (sev *FullNodeServer) FullNode() *FullNode {
	return sev.fullNode
}

// Return all current peers.
func (sev *FullNodeServer) GetAllPeers() []Peer {
	return sev.peers.GetAllPeers()
}

// Set transaction should add transaction to pool and broad cast to peer. A
// transaction the pool already holds is not relayed again.
func (sev *FullNodeServer) SetTransaction(ctx context.Context, req *service.SetTransactionRequest) (*service.SetTransactionResponse, error) {
	tx := req.GetTx()
	if tx == nil {
		return nil, status.Error(codes.InvalidArgument, "input transaction is nil")
	}

	var known bool
	var submitErr error
	err := sev.fullNode.Service().Do(ctx, func(c *miner.Controller) {
		if existing, ok := c.Pool().Get(tx.ID); ok && bytes.Equal(existing.Signature, tx.Signature) {
			known = true
			return
		}
		submitErr = c.SubmitTransaction(tx)
	})
	if err == nil {
		err = submitErr
	}
	if err != nil {
		return nil, toStatus(err)
	}
	if known {
		return &service.SetTransactionResponse{}, nil
	}

	// Broadcast to all other nodes.
	sev.peers.Broadcast("SetTransaction", func(ctx context.Context, client service.FullNodeServiceClient) error {
		_, err := client.SetTransaction(ctx, &service.SetTransactionRequest{Tx: tx})
		return err
	})
	return &service.SetTransactionResponse{}, nil
}

// Handle the incoming block. If the block is new and valid, broadcast it to
// other nodes.
func (sev *FullNodeServer) SetBlock(ctx context.Context, req *service.SetBlockRequest) (*service.SetBlockResponse, error) {
	block := req.GetBlock()
	if block == nil {
		return nil, status.Error(codes.InvalidArgument, "input block is nil")
	}
	sev.logger.Debug("received a new block", zap.String("hash", block.Hash))

	tailChange, err := sev.fullNode.Service().AcceptBlock(ctx, block)
	if errors.Is(err, chain.ErrKnownBlock) {
		return &service.SetBlockResponse{}, nil
	}
	if err != nil {
		return nil, toStatus(err)
	}

	sev.peers.Broadcast("SetBlock", func(ctx context.Context, client service.FullNodeServiceClient) error {
		_, err := client.SetBlock(ctx, &service.SetBlockRequest{Block: block})
		return err
	})
	return &service.SetBlockResponse{TailChanged: tailChange}, nil
}

// Add a connection to peer, note that this is a one way connection.
func (sev *FullNodeServer) AddPeer(ctx context.Context, req *service.AddPeerRequest) (*service.AddPeerResponse, error) {
	if req.NodeAddr == nil {
		return nil, status.Error(codes.InvalidArgument, "node address is nil")
	}
	if _, err := sev.peers.AddPeer(Address{IpAddr: req.NodeAddr.IpAddr, Port: req.NodeAddr.Port}); err != nil {
		return nil, toStatus(err)
	}
	return &service.AddPeerResponse{}, nil
}

// Add a mutual connection to a remote full node.
func (sev *FullNodeServer) AddMutualConnection(ctx context.Context, ipAddr string, port string) error {
	addr := Address{IpAddr: ipAddr, Port: port}
	// Add peer node to self peer list.
	client, err := sev.peers.AddPeer(addr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = client.AddPeer(ctx, &service.AddPeerRequest{NodeAddr: &service.NodeAddr{IpAddr: sev.addr.IpAddr, Port: sev.addr.Port}})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		// Peer cannot add us back, prune this peer.
		sev.peers.RemovePeer(addr)
		return errors.Wrapf(err, "peer %s", addr)
	}
	return nil
}

func (sev *FullNodeServer) RemovePeer(addr Address) bool {
	return sev.peers.RemovePeer(addr)
}

// Return the balance the address owns at the tail.
func (sev *FullNodeServer) GetBalance(ctx context.Context, req *service.GetBalanceRequest) (*service.GetBalanceResponse, error) {
	if req.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "address is empty")
	}
	balance, height, err := sev.fullNode.GetBalance(ctx, req.Address)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.GetBalanceResponse{Balance: balance, Height: height}, nil
}

func (sev *FullNodeServer) StartMining(ctx context.Context, _ *emptypb.Empty) (*service.StartMiningResponse, error) {
	started, err := sev.fullNode.Service().StartMining(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.StartMiningResponse{Started: started}, nil
}

func (sev *FullNodeServer) StopMining(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := sev.fullNode.Service().StopMining(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (sev *FullNodeServer) GetStatus(ctx context.Context, _ *emptypb.Empty) (*service.GetStatusResponse, error) {
	st, err := sev.fullNode.Service().Status(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.GetStatusResponse{
		NodeId:     sev.fullNode.ID(),
		State:      st.State.String(),
		Round:      st.Round,
		TipHash:    st.TipHash,
		Height:     st.Height,
		Difficulty: st.Difficulty,
		PoolSize:   st.PoolSize,
		Peers:      sev.peers.Len(),
	}, nil
}

// Show writes the blocks from d blocks behind the tail onwards as a dot graph.
func (sev *FullNodeServer) Show(ctx context.Context, d int, w io.Writer) error {
	var renderErr error
	if err := sev.fullNode.Service().Do(ctx, func(c *miner.Controller) {
		renderErr = visualize.Render(w, c.Chain().Tip(), d)
	}); err != nil {
		return err
	}
	return renderErr
}

// Subscribe forwards controller notifications to l.
func (sev *FullNodeServer) Subscribe(ctx context.Context, l miner.Listener) (string, error) {
	return sev.fullNode.Service().Subscribe(ctx, l)
}

// Close drops every peer connection.
func (sev *FullNodeServer) Close() {
	sev.peers.Close()
}

// NewGRPCServer registers sev on a fresh grpc server.
func NewGRPCServer(sev *FullNodeServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(sev.logger)))
	grpcServer := grpc.NewServer(opts...)
	service.RegisterFullNodeServiceServer(grpcServer, sev)
	reflection.Register(grpcServer)
	return grpcServer
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("handled rpc",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("took", time.Since(start)))
		return resp, err
	}
}

// toStatus maps node errors to grpc status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, txpool.ErrInvalidTransaction),
		errors.Is(err, chain.ErrInvalidHash),
		errors.Is(err, chain.ErrInvalidBlock):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, chain.ErrUnknownParent), errors.Is(err, chain.ErrTooDeep):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, chain.ErrKnownBlock), errors.Is(err, ErrPeerExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, miner.ErrServiceStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
