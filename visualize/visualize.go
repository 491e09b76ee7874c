package visualize

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Luismorlan/ape_coin/model"
	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/errors"
)

// We need to re-define the visualize model here because the chain model
// carries signatures and ledgers we don't really care about when rendering.
type output struct {
	address string
	amount  int64
}

type transaction struct {
	id      string
	sender  string
	amount  int64
	outputs []output
}

type block struct {
	hash     string
	prevHash string
	height   int64
	miner    string
	reward   transaction
	txs      []transaction
	nonce    int64
	children []block
}

// Given a tail node, return from chain of the d-th block to the tail,
// including the branch.
func constructData(tail *model.BlockWrapper, d int) block {
	r := tail
	// go to d blocks ago to find the root.
	for i := 0; i < d; i++ {
		if r.Parent == nil {
			break
		}
		r = r.Parent
	}

	// build the tree recursively.
	return buildTree(r)
}

// The string of public key and hash is just too long to render, instead we take only first 3 and last 3
// characters and replace the middle part with '...'. E.g. "abcdefghi" will be rendered as "abc...ghi"
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func txToTx(tx *model.Transaction) transaction {
	t := transaction{
		id:     shortenString(tx.ID),
		sender: shortenString(tx.SenderAddress),
		amount: tx.Amount,
	}
	for i := 0; i < len(tx.Outputs); i++ {
		out := tx.Outputs[i]
		t.outputs = append(t.outputs, output{address: shortenString(out.Address), amount: out.Amount})
	}
	return t
}

func blockToblock(b *model.Block) block {
	n := block{
		hash:     shortenString(b.Hash),
		prevHash: shortenString(b.PrevHash),
		height:   b.Height,
		miner:    shortenString(b.Miner),
		nonce:    b.Nonce,
	}

	for i := 0; i < len(b.Txs); i++ {
		tx := b.Txs[i]
		if i == len(b.Txs)-1 && tx.IsReward() {
			n.reward = txToTx(tx)
			continue
		}
		n.txs = append(n.txs, txToTx(tx))
	}
	return n
}

// Recursively build the tree in a dfs manner.
func buildTree(root *model.BlockWrapper) block {
	node := blockToblock(root.B)
	for i := 0; i < len(root.Children); i++ {
		node.children = append(node.children, buildTree(root.Children[i]))
	}
	return node
}

// Render writes the blocks from d blocks behind tail onwards, every branch
// included, to w as a dot graph.
func Render(w io.Writer, tail *model.BlockWrapper, d int) error {
	if tail == nil {
		return errors.New("nothing to render")
	}
	chain := constructData(tail, d)
	memviz.Map(w, &chain)
	return nil
}

// WriteGraph saves a rendered dot graph into dir and converts it to png when
// graphviz is installed. It returns the path of the most useful file written.
func WriteGraph(graph []byte, dir string, id string) (string, error) {
	fileName := filepath.Join(dir, "chaindata-"+id)
	outputName := filepath.Join(dir, "rendered-chain-"+id+".png")
	// Write the parsed data to disk
	if err := os.WriteFile(fileName, graph, 0644); err != nil {
		return "", errors.Wrap(err, "write chain graph")
	}

	if _, err := exec.LookPath("dot"); err != nil {
		return fileName, nil
	}
	if err := exec.Command("dot", "-Tpng", fileName, "-o", outputName).Run(); err != nil {
		return fileName, errors.Wrap(err, "render png")
	}
	return outputName, nil
}
