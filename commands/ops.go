package commands

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidCommand = errors.New("invalid command")

type Operation int

const PORT_REGEX = "^[0-9]{4,5}$"

var portRegex = regexp.MustCompile(PORT_REGEX)

const (
	UNKNOWN Operation = iota
	// Start mining, runs until explicitly stopped.
	START
	// Stop mining completely.
	STOP
	// Add a new peer to this full node.
	ADD_PEER
	// Renove a peer by ip and port.
	REMOVE_PEER
	// List all peers.
	LIST_PEER
	// Show the blockchain.
	SHOW
	// Print the miner state and the tail.
	STATUS
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

// isValidAddr accepts any ip literal and a 4 or 5 digit port.
func isValidAddr(ipAddr string, port string) bool {
	return net.ParseIP(ipAddr) != nil && portRegex.MatchString(port)
}

func (c Command) IsValid() bool {
	switch c.Op {
	case START, STOP, LIST_PEER, STATUS:
		return len(c.Args) == 0
	case ADD_PEER, REMOVE_PEER:
		return len(c.Args) == 2 && isValidAddr(c.Args[0], c.Args[1])
	case SHOW:
		if len(c.Args) != 1 {
			return false
		}
		// depth must be a non negative number.
		d, err := strconv.Atoi(c.Args[0])
		return err == nil && d >= 0
	default:
		return false
	}
}

// Depth is the argument of a SHOW command.
func (c Command) Depth() int {
	d, _ := strconv.Atoi(c.Args[0])
	return d
}

// From string, create
func CreateCommand(s string) (Command, error) {
	// split command by whitespace.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.Wrap(ErrInvalidCommand, "command is empty")
	}
	cmd := Command{Args: ss[1:]}
	switch ss[0] {
	case "start":
		cmd.Op = START
	case "stop":
		cmd.Op = STOP
	case "add_peer":
		cmd.Op = ADD_PEER
	case "remove_peer":
		cmd.Op = REMOVE_PEER
	case "list_peer":
		cmd.Op = LIST_PEER
	case "show":
		cmd.Op = SHOW
	case "status":
		cmd.Op = STATUS
	}
	if !cmd.IsValid() {
		return Command{}, errors.Wrap(ErrInvalidCommand, s)
	}
	return cmd, nil
}
