// Package design describes a circuit as partitions wired together by named
// nets, and simulates it from per-partition truth tables.
package design

import (
	"bmfapprox/bitmat"
	"bmfapprox/graph"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

var ErrCombinationalLoop = errors.New("combinational loop")

// Partition is one block of the design. Table is its exact function: row r
// holds the outputs for the input assignment whose value, Inputs[0] being the
// most significant bit, is r.
type Partition struct {
	Name        string
	Inputs      []string
	Outputs     []string
	Table       bitmat.TruthTable
	TruthPath   string
	VerilogPath string
}

type Design struct {
	Name       string
	Inputs     []string
	Outputs    []string
	Partitions []Partition

	nets   map[string]int
	driver map[string]int
}

// New checks that every net has exactly one driver, that every net read is
// driven, and that partition tables match their port lists. Loops are only
// detected when the design is ordered.
func New(name string, inputs, outputs []string, partitions []Partition) (*Design, error) {
	d := &Design{
		Name:       name,
		Inputs:     inputs,
		Outputs:    outputs,
		Partitions: partitions,
		nets:       make(map[string]int),
		driver:     make(map[string]int),
	}
	driven := mapset.NewThreadUnsafeSet[string]()
	addNet := func(net string, by int) error {
		if !driven.Add(net) {
			return errors.Errorf("net %s has more than one driver", net)
		}
		d.nets[net] = len(d.nets)
		d.driver[net] = by
		return nil
	}

	for _, in := range inputs {
		if err := addNet(in, -1); err != nil {
			return nil, err
		}
	}
	names := mapset.NewThreadUnsafeSet[string]()
	for i, p := range partitions {
		if !names.Add(p.Name) {
			return nil, errors.Errorf("partition %s declared twice", p.Name)
		}
		if p.Table.Outputs == nil {
			return nil, errors.Errorf("partition %s has no truth table", p.Name)
		}
		if p.Table.Inputs != len(p.Inputs) || !p.Table.Exhaustive() {
			return nil, errors.Errorf("partition %s: table with %d rows is not exhaustive over %d inputs",
				p.Name, p.Table.Len(), len(p.Inputs))
		}
		if p.Table.Width() != len(p.Outputs) {
			return nil, errors.Errorf("partition %s: table has %d outputs, ports list %d",
				p.Name, p.Table.Width(), len(p.Outputs))
		}
		for _, out := range p.Outputs {
			if err := addNet(out, i); err != nil {
				return nil, errors.Wrapf(err, "partition %s", p.Name)
			}
		}
	}

	for _, p := range partitions {
		for _, in := range p.Inputs {
			if !driven.Contains(in) {
				return nil, errors.Errorf("partition %s reads undriven net %s", p.Name, in)
			}
		}
	}
	for _, out := range outputs {
		if !driven.Contains(out) {
			return nil, errors.Errorf("primary output %s is not driven", out)
		}
	}
	return d, nil
}

// Graph has an edge from each partition to every partition reading one of its
// outputs.
func (d *Design) Graph() *graph.Graph {
	g := graph.NewGraph(len(d.Partitions))
	for i, p := range d.Partitions {
		for _, in := range p.Inputs {
			if from := d.driver[in]; from >= 0 {
				g.AddEdge(from, i)
			}
		}
	}
	return g
}

// Fanin lists the partitions driving some input of partition i, without
// repeats.
func (d *Design) Fanin(i int) []int {
	seen := mapset.NewThreadUnsafeSet[int]()
	out := make([]int, 0)
	for _, in := range d.Partitions[i].Inputs {
		if from := d.driver[in]; from >= 0 && seen.Add(from) {
			out = append(out, from)
		}
	}
	return out
}

// Order returns the partitions in evaluation order.
func (d *Design) Order() ([]int, error) {
	order, cycle, err := d.Graph().TopoOrder()
	if err != nil {
		names := make([]string, len(cycle))
		for i, c := range cycle {
			names[i] = d.Partitions[c].Name
		}
		return nil, errors.Wrapf(ErrCombinationalLoop, "through partitions %v", names)
	}
	return order, nil
}

// Groups lists the sets of partitions that share no net with each other.
func (d *Design) Groups() [][]string {
	count, components := d.Graph().Components()
	out := make([][]string, 0, count)
	for id := 1; id <= count; id++ {
		group := make([]string, 0, len(components[id]))
		for _, p := range components[id] {
			group = append(group, d.Partitions[p].Name)
		}
		out = append(out, group)
	}
	return out
}

// Tables returns the exact output table of every partition.
func (d *Design) Tables() []*bitmat.Matrix {
	out := make([]*bitmat.Matrix, len(d.Partitions))
	for i, p := range d.Partitions {
		out[i] = p.Table.Outputs
	}
	return out
}

// Trace is the outcome of a simulation.
type Trace struct {
	Outputs *bitmat.Matrix
	// PartitionInputs holds, per partition, the input value seen on each
	// vector.
	PartitionInputs [][]uint64
}

// Simulate drives the primary inputs with each row of vectors and propagates
// values through functions, one output table per partition.
func (d *Design) Simulate(functions []*bitmat.Matrix, vectors *bitmat.Matrix) (Trace, error) {
	if len(functions) != len(d.Partitions) {
		return Trace{}, errors.Errorf("%d partition functions for %d partitions", len(functions), len(d.Partitions))
	}
	if vectors.Cols() != len(d.Inputs) {
		return Trace{}, errors.Errorf("vectors have %d bits, design has %d inputs", vectors.Cols(), len(d.Inputs))
	}
	for i, f := range functions {
		p := d.Partitions[i]
		if f.Rows() != p.Table.Len() || f.Cols() != len(p.Outputs) {
			return Trace{}, errors.Errorf("partition %s: function is %dx%d, want %dx%d",
				p.Name, f.Rows(), f.Cols(), p.Table.Len(), len(p.Outputs))
		}
	}
	order, err := d.Order()
	if err != nil {
		return Trace{}, err
	}

	inIdx := make([][]int, len(d.Partitions))
	outIdx := make([][]int, len(d.Partitions))
	for i, p := range d.Partitions {
		inIdx[i] = d.indices(p.Inputs)
		outIdx[i] = d.indices(p.Outputs)
	}
	primaryIn := d.indices(d.Inputs)
	primaryOut := d.indices(d.Outputs)

	n := vectors.Rows()
	tr := Trace{
		Outputs:         bitmat.New(n, len(d.Outputs)),
		PartitionInputs: make([][]uint64, len(d.Partitions)),
	}
	for i := range tr.PartitionInputs {
		tr.PartitionInputs[i] = make([]uint64, n)
	}

	values := make([]uint8, len(d.nets))
	for r := 0; r < n; r++ {
		for i, v := range vectors.Row(r) {
			values[primaryIn[i]] = v
		}
		for _, p := range order {
			var idx uint64
			for _, net := range inIdx[p] {
				idx = idx<<1 | uint64(values[net])
			}
			tr.PartitionInputs[p][r] = idx
			row := functions[p].Row(int(idx))
			for o, net := range outIdx[p] {
				values[net] = row[o]
			}
		}
		out := tr.Outputs.Row(r)
		for o, net := range primaryOut {
			out[o] = values[net]
		}
	}
	return tr, nil
}

func (d *Design) indices(nets []string) []int {
	out := make([]int, len(nets))
	for i, n := range nets {
		out[i] = d.nets[n]
	}
	return out
}
