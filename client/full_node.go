// Package client talks to a full node over grpc.
package client

import (
	"context"
	"net"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/Luismorlan/ape_coin/service"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
)

type FullNodeClient struct {
	conn   *grpc.ClientConn
	client service.FullNodeServiceClient
}

// Dial connects to the full node at ipAddr:port. Extra options are appended to
// the insecure transport.
func Dial(ipAddr string, port string, opts ...grpc.DialOption) (*FullNodeClient, error) {
	target := net.JoinHostPort(ipAddr, port)
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", target)
	}
	return &FullNodeClient{conn: conn, client: service.NewFullNodeServiceClient(conn)}, nil
}

func (c *FullNodeClient) SendTransaction(ctx context.Context, tx *model.Transaction) error {
	_, err := c.client.SetTransaction(ctx, &service.SetTransactionRequest{Tx: tx})
	return err
}

func (c *FullNodeClient) GetBalance(ctx context.Context, address string) (*service.GetBalanceResponse, error) {
	return c.client.GetBalance(ctx, &service.GetBalanceRequest{Address: address})
}

// StartMining reports false when the node was already mining.
func (c *FullNodeClient) StartMining(ctx context.Context) (bool, error) {
	res, err := c.client.StartMining(ctx, &emptypb.Empty{})
	if err != nil {
		return false, err
	}
	return res.Started, nil
}

func (c *FullNodeClient) StopMining(ctx context.Context) error {
	_, err := c.client.StopMining(ctx, &emptypb.Empty{})
	return err
}

func (c *FullNodeClient) Status(ctx context.Context) (*service.GetStatusResponse, error) {
	return c.client.GetStatus(ctx, &emptypb.Empty{})
}

func (c *FullNodeClient) Close() error {
	return c.conn.Close()
}
