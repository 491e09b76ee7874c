package commands

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// do nothing operation
	NOOP Operation = iota
	// Initiate a money transfer from wallet
	TRANSFER
	// Print user public key
	MY_PK
	// Connect a full node with ip address and port
	CONNECT
	// Get my own balance
	GET_BALANCE
)

type ClientCommand struct {
	Op   Operation
	Args []string
}

func (c ClientCommand) IsValid() bool {
	switch c.Op {
	case TRANSFER:
		if len(c.Args) != 2 {
			return false
		}
		v, err := strconv.ParseInt(c.Args[1], 10, 64)
		return err == nil && v > 0
	case MY_PK, GET_BALANCE:
		return len(c.Args) == 0
	case CONNECT:
		return len(c.Args) == 2 && isValidAddr(c.Args[0], c.Args[1])
	default:
		return false
	}
}

// Amount is the value of a TRANSFER command.
func (c ClientCommand) Amount() int64 {
	v, _ := strconv.ParseInt(c.Args[1], 10, 64)
	return v
}

func CreateClientCommand(s string) (ClientCommand, error) {
	// split command by whitespace.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return ClientCommand{}, errors.Wrap(ErrInvalidCommand, "command is empty")
	}
	cmd := ClientCommand{Args: ss[1:]}
	switch ss[0] {
	case "transfer":
		cmd.Op = TRANSFER
	case "my_pk":
		cmd.Op = MY_PK
	case "connect":
		cmd.Op = CONNECT
	case "get_balance":
		cmd.Op = GET_BALANCE
	default:
		cmd.Op = NOOP
	}
	if !cmd.IsValid() {
		return ClientCommand{}, errors.Wrap(ErrInvalidCommand, s)
	}
	return cmd, nil
}
