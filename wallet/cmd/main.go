package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Luismorlan/ape_coin/commands"
	"github.com/Luismorlan/ape_coin/config"
	"github.com/Luismorlan/ape_coin/logging"
	"github.com/Luismorlan/ape_coin/wallet"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usage = `commands:
  connect <ip> <port>          connect to a full node
  get_balance                  print your balance at the tail
  transfer <address> <amount>  send coins to address
  my_pk                        print your address`

var (
	keyPath  string
	logLevel string
	nodeAddr string
)

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Ape coin wallet",
	Long:  "Sign transactions with your key and send them to a full node.\n\n" + usage,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&keyPath, "key_path", "/tmp/mykey.hex", "file path for your private key, created when missing")
	rootCmd.Flags().StringVar(&logLevel, "log_level", "info", "debug, info, warn or error")
	rootCmd.Flags().StringVar(&nodeAddr, "node", "", "full node to connect to on start, as \"<ip> <port>\"")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger, err := logging.New(config.LogConfig{Level: logLevel, Development: true})
	if err != nil {
		return err
	}
	defer logger.Sync()

	w, err := wallet.NewWallet(keyPath, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	fmt.Println("Wallet public key:", w.GetPublicKey())

	if nodeAddr != "" {
		c, err := commands.CreateClientCommand("connect " + nodeAddr)
		if err != nil {
			return err
		}
		if err := handle(ctx, c, w, os.Stdout); err != nil {
			return err
		}
	}

	cmd := make(chan commands.ClientCommand)
	go ParseCommand(ctx, os.Stdin, cmd, logger)
	HandleCommand(ctx, cmd, w, os.Stdout, logger)
	return nil
}

// Parse command from stdio.
func ParseCommand(ctx context.Context, r io.Reader, cmd chan<- commands.ClientCommand, logger *zap.Logger) {
	scanner := bufio.NewScanner(r)
	fmt.Print("> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Print("> ")
			continue
		}
		c, err := commands.CreateClientCommand(text)
		if err != nil {
			logger.Warn("unrecognized command", zap.Error(err))
			fmt.Println(usage)
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

func HandleCommand(ctx context.Context, cmd <-chan commands.ClientCommand, w *wallet.Wallet, out io.Writer, logger *zap.Logger) {
	for {
		var c commands.ClientCommand
		select {
		case c = <-cmd:
		case <-ctx.Done():
			return
		}
		if err := handle(ctx, c, w, out); err != nil {
			logger.Warn("command failed", zap.Int("op", int(c.Op)), zap.Error(err))
		}
		fmt.Fprint(out, "> ")
	}
}

func handle(ctx context.Context, c commands.ClientCommand, w *wallet.Wallet, out io.Writer) error {
	switch c.Op {
	case commands.TRANSFER:
		receiver := c.Args[0]
		amount := c.Amount()
		if err := w.TransferMoney(ctx, receiver, amount); err != nil {
			return errors.Wrap(err, "fail to transfer money")
		}
		fmt.Fprintf(out, "successfully send transaction to fullnode, receiver: %s, value: %d\n", receiver, amount)
	case commands.MY_PK:
		fmt.Fprintln(out, w.GetPublicKey())
	case commands.CONNECT:
		if err := w.SetFullNodeConnection(c.Args[0], c.Args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "connected full node endpoint %s:%s\n", c.Args[0], c.Args[1])
	case commands.GET_BALANCE:
		v, err := w.GetBalance(ctx)
		if err != nil {
			return errors.Wrap(err, "fail to get balance")
		}
		fmt.Fprintf(out, "your total balance is: %d\n", v)
	default:
		return errors.Errorf("unimplemented command: %d", c.Op)
	}
	return nil
}
