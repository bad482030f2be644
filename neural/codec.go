package neural

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// GenomeJSON is the on-disk form of a brain genome.
type GenomeJSON struct {
	ID    int        `json:"id"`
	Nodes []NodeJSON `json:"nodes"`
	Genes []GeneJSON `json:"genes"`
}

// NodeJSON is one neuron.
type NodeJSON struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Activation string `json:"activation"`
}

// GeneJSON is one connection gene.
type GeneJSON struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Recurrent  bool    `json:"recurrent,omitempty"`
	Innovation int64   `json:"innovation"`
	Mutation   float64 `json:"mutation,omitempty"`
}

func neuronTypeName(n *network.NNode) (string, error) {
	switch n.NeuronType {
	case network.InputNeuron:
		return "input", nil
	case network.OutputNeuron:
		return "output", nil
	case network.HiddenNeuron:
		return "hidden", nil
	case network.BiasNeuron:
		return "bias", nil
	}
	return "", fmt.Errorf("node %d: unsupported neuron type %v", n.Id, n.NeuronType)
}

func newNodeFromName(id int, name string) (*network.NNode, error) {
	switch name {
	case "input":
		return network.NewNNode(id, network.InputNeuron), nil
	case "output":
		return network.NewNNode(id, network.OutputNeuron), nil
	case "hidden":
		return network.NewNNode(id, network.HiddenNeuron), nil
	case "bias":
		return network.NewNNode(id, network.BiasNeuron), nil
	}
	return nil, fmt.Errorf("node %d: unknown neuron type %q", id, name)
}

func activationName(t neatmath.NodeActivationType) (string, error) {
	switch t {
	case neatmath.LinearActivation:
		return "linear", nil
	case neatmath.TanhActivation:
		return "tanh", nil
	case neatmath.SigmoidSteepenedActivation:
		return "sigmoid_steepened", nil
	}
	return "", fmt.Errorf("unsupported activation %v", t)
}

func activationType(name string) (neatmath.NodeActivationType, error) {
	switch name {
	case "linear":
		return neatmath.LinearActivation, nil
	case "tanh":
		return neatmath.TanhActivation, nil
	case "sigmoid_steepened":
		return neatmath.SigmoidSteepenedActivation, nil
	}
	return 0, fmt.Errorf("unknown activation %q", name)
}

// EncodeGenome converts a genome to its JSON form.
func EncodeGenome(g *genetics.Genome) (GenomeJSON, error) {
	if g == nil {
		return GenomeJSON{}, ErrNilGenome
	}
	out := GenomeJSON{
		ID:    g.Id,
		Nodes: make([]NodeJSON, 0, len(g.Nodes)),
		Genes: make([]GeneJSON, 0, len(g.Genes)),
	}
	for _, n := range g.Nodes {
		typ, err := neuronTypeName(n)
		if err != nil {
			return GenomeJSON{}, err
		}
		act, err := activationName(n.ActivationType)
		if err != nil {
			return GenomeJSON{}, fmt.Errorf("node %d: %w", n.Id, err)
		}
		out.Nodes = append(out.Nodes, NodeJSON{ID: n.Id, Type: typ, Activation: act})
	}
	for _, gene := range g.Genes {
		out.Genes = append(out.Genes, GeneJSON{
			In:         gene.Link.InNode.Id,
			Out:        gene.Link.OutNode.Id,
			Weight:     gene.Link.ConnectionWeight,
			Enabled:    gene.IsEnabled,
			Recurrent:  gene.Link.IsRecurrent,
			Innovation: gene.InnovationNum,
			Mutation:   gene.MutationNum,
		})
	}
	return out, nil
}

// DecodeGenome rebuilds a genome from its JSON form.
func DecodeGenome(in GenomeJSON) (*genetics.Genome, error) {
	nodes := make([]*network.NNode, 0, len(in.Nodes))
	byID := make(map[int]*network.NNode, len(in.Nodes))
	for _, nj := range in.Nodes {
		if _, dup := byID[nj.ID]; dup {
			return nil, fmt.Errorf("duplicate node %d", nj.ID)
		}
		n, err := newNodeFromName(nj.ID, nj.Type)
		if err != nil {
			return nil, err
		}
		if n.ActivationType, err = activationType(nj.Activation); err != nil {
			return nil, fmt.Errorf("node %d: %w", nj.ID, err)
		}
		nodes = append(nodes, n)
		byID[nj.ID] = n
	}

	genes := make([]*genetics.Gene, 0, len(in.Genes))
	for _, gj := range in.Genes {
		inNode, outNode := byID[gj.In], byID[gj.Out]
		if inNode == nil || outNode == nil {
			return nil, fmt.Errorf("gene %d: references missing node", gj.Innovation)
		}
		gene := genetics.NewGeneWithTrait(nil, gj.Weight, inNode, outNode, gj.Recurrent, gj.Innovation, gj.Mutation)
		gene.IsEnabled = gj.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(in.ID, nil, nodes, genes), nil
}

// MarshalGenome encodes a genome as indented JSON.
func MarshalGenome(g *genetics.Genome) ([]byte, error) {
	enc, err := EncodeGenome(g)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(enc, "", "  ")
}

// UnmarshalGenome decodes a genome from JSON.
func UnmarshalGenome(data []byte) (*genetics.Genome, error) {
	var raw GenomeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing genome JSON: %w", err)
	}
	return DecodeGenome(raw)
}

// LoadGenome reads a genome written by MarshalGenome.
func LoadGenome(path string) (*genetics.Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genome: %w", err)
	}
	return UnmarshalGenome(data)
}
