package verilog

import (
	"strconv"

	"github.com/pkg/errors"
)

type Direction int

const (
	Input Direction = iota
	Output
	Inout
)

func parseDirection(s string) Direction {
	switch s {
	case "output":
		return Output
	case "inout":
		return Inout
	}
	return Input
}

func (d Direction) String() string {
	switch d {
	case Output:
		return "output"
	case Inout:
		return "inout"
	}
	return "input"
}

// Port is one declared port. Scalar ports have MSB == LSB == 0 and Vector
// false.
type Port struct {
	Name   string
	Dir    Direction
	Vector bool
	MSB    int
	LSB    int
}

func (p Port) Width() int {
	if p.MSB >= p.LSB {
		return p.MSB - p.LSB + 1
	}
	return p.LSB - p.MSB + 1
}

// Bits names the port's bits, most significant first.
func (p Port) Bits() []string {
	if !p.Vector {
		return []string{p.Name}
	}
	step := -1
	if p.MSB < p.LSB {
		step = 1
	}
	out := make([]string, 0, p.Width())
	for i := p.MSB; ; i += step {
		out = append(out, p.Name+"["+strconv.Itoa(i)+"]")
		if i == p.LSB {
			break
		}
	}
	return out
}

type Module struct {
	Name  string
	Ports []Port
}

func (m Module) filter(dir Direction) []Port {
	out := make([]Port, 0)
	for _, p := range m.Ports {
		if p.Dir == dir {
			out = append(out, p)
		}
	}
	return out
}

func (m Module) Inputs() []Port  { return m.filter(Input) }
func (m Module) Outputs() []Port { return m.filter(Output) }

func bits(ports []Port) []string {
	out := make([]string, 0)
	for _, p := range ports {
		out = append(out, p.Bits()...)
	}
	return out
}

// InputBits lists input bit names in port order, each port most significant
// bit first. Together they index a row of the module's truth table.
func (m Module) InputBits() []string  { return bits(m.Inputs()) }
func (m Module) OutputBits() []string { return bits(m.Outputs()) }

func Find(modules []Module, name string) (Module, error) {
	for _, m := range modules {
		if m.Name == name {
			return m, nil
		}
	}
	return Module{}, errors.Errorf("no module named %q", name)
}

func newPort(name, dir string, r *span) Port {
	p := Port{Name: name, Dir: parseDirection(dir)}
	if r != nil {
		p.Vector, p.MSB, p.LSB = true, r.MSB, r.LSB
	}
	return p
}

// resolve merges the header port list with body declarations. ANSI headers
// carry the direction inline and later ports inherit it; a plain name list
// takes direction and range from the matching declaration.
func (m *module) resolve() (Module, error) {
	declared := make(map[string]Port)
	for _, it := range m.Items {
		if it.Decl == nil {
			continue
		}
		for _, name := range it.Decl.Names {
			declared[name] = newPort(name, it.Decl.Dir, it.Decl.Range)
		}
	}

	out := Module{Name: m.Name}
	dir := ""
	var r *span
	for _, pd := range m.Ports {
		if pd.Dir != "" {
			dir, r = pd.Dir, pd.Range
		} else if pd.Range != nil {
			r = pd.Range
		}
		if dir != "" {
			out.Ports = append(out.Ports, newPort(pd.Name, dir, r))
			continue
		}
		p, ok := declared[pd.Name]
		if !ok {
			return Module{}, errors.Errorf("port %s has no direction", pd.Name)
		}
		out.Ports = append(out.Ports, p)
	}
	return out, nil
}
