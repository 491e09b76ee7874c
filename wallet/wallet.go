package wallet

import (
	"context"
	"os"
	"time"

	"github.com/Luismorlan/ape_coin/client"
	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/utils"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

var (
	ErrNotConnected        = errors.New("wallet is not connected to a full node")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Timeout of every call made to the full node.
const rpcTimeout = 10 * time.Second

// User signs and sends transactions to network.
type Wallet struct {
	Keys           *btcec.PrivateKey
	FullNodeClient *client.FullNodeClient
	logger         *zap.Logger
	now            func() time.Time
}

// NewWallet loads the private key at keyPath, creating one if the file does
// not exist yet.
func NewWallet(keyPath string, logger *zap.Logger) (*Wallet, error) {
	_, statErr := os.Stat(keyPath)
	sk, err := utils.ParseKeyFile(keyPath, os.IsNotExist(statErr))
	if err != nil {
		return nil, err
	}
	return &Wallet{Keys: sk, logger: logger, now: time.Now}, nil
}

func (w *Wallet) SetFullNodeConnection(ipAddr string, port string, opts ...grpc.DialOption) error {
	c, err := client.Dial(ipAddr, port, opts...)
	if err != nil {
		return err
	}
	if w.FullNodeClient != nil {
		w.FullNodeClient.Close()
	}
	w.FullNodeClient = c
	w.logger.Info("connected full node endpoint", zap.String("ip", ipAddr), zap.String("port", port))
	return nil
}

// GetPublicKey returns the address other users send money to.
func (w *Wallet) GetPublicKey() string {
	return utils.PublicKeyToAddress(w.Keys.PubKey())
}

func (w *Wallet) GetBalance(ctx context.Context) (int64, error) {
	if w.FullNodeClient == nil {
		return 0, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	res, err := w.FullNodeClient.GetBalance(ctx, w.GetPublicKey())
	if err != nil {
		return 0, errors.Wrap(err, "failed to get balance from full node")
	}
	return res.Balance, nil
}

func (w *Wallet) TransferMoney(ctx context.Context, receiverAddress string, amount int64) error {
	if _, err := utils.AddressToPublicKey(receiverAddress); err != nil {
		return errors.Wrap(err, "failed to parse receiver address")
	}
	balance, err := w.GetBalance(ctx)
	if err != nil {
		return err
	}
	if balance < amount {
		return errors.Wrapf(ErrInsufficientBalance, "balance %d, transfer %d", balance, amount)
	}
	tx, err := w.CreateTransaction([]model.Output{{Address: receiverAddress, Amount: amount}})
	if err != nil {
		return err
	}
	if err := w.SendTransaction(ctx, tx); err != nil {
		return err
	}
	w.logger.Info("sent transaction to full node",
		zap.String("id", tx.ID),
		zap.String("receiver", receiverAddress),
		zap.Int64("amount", amount))
	return nil
}

func (w *Wallet) SendTransaction(ctx context.Context, tx *model.Transaction) error {
	if w.FullNodeClient == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	if err := w.FullNodeClient.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to send transaction to full node")
	}
	return nil
}

// CreateTransaction builds a transaction paying outputs from this wallet and
// signs it with the wallet key.
func (w *Wallet) CreateTransaction(outputs []model.Output) (*model.Transaction, error) {
	tx := &model.Transaction{
		ID:            uuid.NewV4().String(),
		SenderAddress: w.GetPublicKey(),
		Timestamp:     w.now().UnixNano(),
		Outputs:       outputs,
	}
	tx.Amount = tx.OutputSum()
	if err := utils.CheckAmount(tx); err != nil {
		return nil, err
	}
	utils.SignTransaction(tx, w.Keys)
	return tx, nil
}

func (w *Wallet) Close() {
	if w.FullNodeClient != nil {
		w.FullNodeClient.Close()
	}
}
