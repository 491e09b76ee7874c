package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Luismorlan/ape_coin/commands"
	"github.com/Luismorlan/ape_coin/config"
	"github.com/Luismorlan/ape_coin/full_node"
	"github.com/Luismorlan/ape_coin/logging"
	"github.com/Luismorlan/ape_coin/miner"
	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/Luismorlan/ape_coin/visualize"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ipAddr     string
	port       string
	peers      []string
	configPath string
	keyPath    string
)

var rootCmd = &cobra.Command{
	Use:   "full_node",
	Short: "Run an ape coin full node",
	Long:  "Run an ape coin full node that mines blocks, serves wallets over grpc and relays blocks to its peers.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&ipAddr, "ip", "127.0.0.1", "ip address peers reach this node on")
	rootCmd.Flags().StringVar(&port, "port", "10000", "port to listen to peers and wallet")
	rootCmd.Flags().StringSliceVar(&peers, "peers", nil, "peer addresses as ip:port, comma separated")
	rootCmd.Flags().StringVar(&configPath, "config_path", "full_node/cmd/config.yaml", "path to full node config")
	rootCmd.Flags().StringVar(&keyPath, "key_path", "", "private key receiving mining rewards, a fresh key is used when empty")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadKey(path string) (*btcec.PrivateKey, error) {
	if path == "" {
		return nil, nil
	}
	_, err := os.Stat(path)
	return utils.ParseKeyFile(path, os.IsNotExist(err))
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sk, err := loadKey(keyPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server, err := full_node.NewFullNodeServer(cfg, sk, full_node.Address{IpAddr: ipAddr, Port: port}, reg, logger)
	if err != nil {
		return err
	}
	defer server.Close()

	lis, err := net.Listen("tcp", net.JoinHostPort(ipAddr, port))
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	nodeDone := make(chan error, 1)
	go func() {
		nodeDone <- server.FullNode().Run(ctx)
	}()

	grpcServer := full_node.NewGRPCServer(server)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server stopped", zap.Error(err))
		}
	}()
	logger.Info("starting to serve",
		zap.String("addr", lis.Addr().String()),
		zap.String("miner", server.FullNode().Address()),
		zap.Int("difficulty", cfg.DIFFICULTY))

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, reg, logger)
	}

	if _, err := server.Subscribe(ctx, miner.ListenerFuncs{
		OnNewBlock: func(b *model.Block) {
			logger.Info("mined new block", zap.String("hash", b.Hash), zap.Int64("height", b.Height))
		},
		OnError: func(err error) {
			logger.Error("mining stopped", zap.Error(err))
		},
	}); err != nil {
		return err
	}

	for _, p := range peers {
		host, peerPort, err := net.SplitHostPort(p)
		if err != nil {
			logger.Warn("skip malformed peer", zap.String("peer", p), zap.Error(err))
			continue
		}
		if err := server.AddMutualConnection(ctx, host, peerPort); err != nil {
			logger.Warn("failed to connect to peer", zap.String("peer", p), zap.Error(err))
		}
	}

	cmd := make(chan commands.Command)
	go ParseCommand(ctx, os.Stdin, cmd, logger)
	go HandleCommand(ctx, cmd, server, os.Stdout, logger)

	err = <-nodeDone
	grpcServer.GracefulStop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

// ParseCommand reads one command per line from r.
func ParseCommand(ctx context.Context, r io.Reader, cmd chan<- commands.Command, logger *zap.Logger) {
	scanner := bufio.NewScanner(r)
	fmt.Print("> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Print("> ")
			continue
		}
		c, err := commands.CreateCommand(text)
		if err != nil {
			logger.Warn("unrecognized command", zap.Error(err))
			fmt.Print("> ")
			continue
		}
		select {
		case cmd <- c:
		case <-ctx.Done():
			return
		}
	}
}

// HandleCommand runs console commands against the node, one at a time.
func HandleCommand(ctx context.Context, cmd <-chan commands.Command, server *full_node.FullNodeServer, out io.Writer, logger *zap.Logger) {
	for {
		var c commands.Command
		select {
		case c = <-cmd:
		case <-ctx.Done():
			return
		}
		if err := handle(ctx, c, server, out); err != nil {
			logger.Warn("command failed", zap.Int("op", int(c.Op)), zap.Error(err))
		}
		fmt.Fprint(out, "> ")
	}
}

func handle(ctx context.Context, c commands.Command, server *full_node.FullNodeServer, out io.Writer) error {
	switch c.Op {
	case commands.START:
		res, err := server.StartMining(ctx, nil)
		if err != nil {
			return err
		}
		if !res.Started {
			fmt.Fprintln(out, "mining has already been started")
		}
	case commands.STOP:
		if _, err := server.StopMining(ctx, nil); err != nil {
			return err
		}
	case commands.STATUS:
		st, err := server.GetStatus(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "state: %s, round: %d, height: %d, tail: %s, pool: %d, peers: %d\n",
			st.State, st.Round, st.Height, st.TipHash, st.PoolSize, st.Peers)
	case commands.SHOW:
		buf := &bytes.Buffer{}
		if err := server.Show(ctx, c.Depth(), buf); err != nil {
			return err
		}
		path, err := visualize.WriteGraph(buf.Bytes(), os.TempDir(), server.FullNode().ID())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "chain rendered to", path)
	case commands.ADD_PEER:
		if err := server.AddMutualConnection(ctx, c.Args[0], c.Args[1]); err != nil {
			return err
		}
		fmt.Fprintln(out, "connected to", net.JoinHostPort(c.Args[0], c.Args[1]))
	case commands.REMOVE_PEER:
		if !server.RemovePeer(full_node.Address{IpAddr: c.Args[0], Port: c.Args[1]}) {
			fmt.Fprintln(out, "no such peer")
		}
	case commands.LIST_PEER:
		for _, p := range server.GetAllPeers() {
			fmt.Fprintln(out, p)
		}
	default:
		return errors.Errorf("unimplemented command: %d", c.Op)
	}
	return nil
}
