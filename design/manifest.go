package design

import (
	"bytes"
	"os"
	"path/filepath"

	"bmfapprox/bitmat"
	"bmfapprox/verilog"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type PartitionSpec struct {
	Name string `yaml:"name" validate:"required"`
	// Verilog supplies the port lists when Inputs and Outputs are omitted.
	Verilog string   `yaml:"verilog" validate:"required_without=Inputs"`
	Truth   string   `yaml:"truth" validate:"required"`
	Inputs  []string `yaml:"inputs" validate:"dive,required"`
	Outputs []string `yaml:"outputs" validate:"required_with=Inputs,dive,required"`
}

// Manifest is the on-disk description of a partitioned design. Relative
// paths are resolved against Dir, the manifest's directory.
type Manifest struct {
	Name       string          `yaml:"name" validate:"required"`
	Inputs     []string        `yaml:"inputs" validate:"required,min=1,dive,required"`
	Outputs    []string        `yaml:"outputs" validate:"required,min=1,dive,required"`
	Partitions []PartitionSpec `yaml:"partitions" validate:"required,min=1,dive"`
	Golden     string          `yaml:"golden"`
	Testbench  string          `yaml:"testbench"`

	Dir string `yaml:"-"`
}

func ParseManifest(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "could not decode manifest")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&m); err != nil {
		return nil, errors.Wrap(err, "invalid manifest")
	}
	m.Dir = dir
	return &m, nil
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read manifest %q", path)
	}
	m, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %q", path)
	}
	return m, nil
}

// Path resolves p against the manifest directory. Empty stays empty.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Build reads every partition's ports and truth table and wires the design.
func (m *Manifest) Build() (*Design, error) {
	parts := make([]Partition, 0, len(m.Partitions))
	for _, ps := range m.Partitions {
		p, err := m.partition(ps)
		if err != nil {
			return nil, errors.Wrapf(err, "partition %s", ps.Name)
		}
		parts = append(parts, p)
	}
	return New(m.Name, m.Inputs, m.Outputs, parts)
}

func (m *Manifest) partition(ps PartitionSpec) (Partition, error) {
	p := Partition{
		Name:        ps.Name,
		Inputs:      ps.Inputs,
		Outputs:     ps.Outputs,
		TruthPath:   m.Path(ps.Truth),
		VerilogPath: m.Path(ps.Verilog),
	}
	if len(p.Inputs) == 0 {
		modules, err := verilog.ParseFile(p.VerilogPath)
		if err != nil {
			return Partition{}, err
		}
		mod, err := verilog.Find(modules, ps.Name)
		if err != nil {
			if len(modules) != 1 {
				return Partition{}, err
			}
			mod = modules[0]
		}
		p.Inputs, p.Outputs = mod.InputBits(), mod.OutputBits()
	}

	raw, err := bitmat.ReadFile(p.TruthPath)
	if err != nil {
		return Partition{}, err
	}
	switch raw.Cols() {
	case len(p.Outputs):
		p.Table = bitmat.TruthTable{Inputs: len(p.Inputs), Outputs: raw}
	case len(p.Inputs) + len(p.Outputs):
		p.Table, err = bitmat.SplitVectors(raw, len(p.Inputs))
		if err != nil {
			return Partition{}, err
		}
	default:
		return Partition{}, errors.Errorf("truth table %q has %d columns for %d inputs and %d outputs",
			p.TruthPath, raw.Cols(), len(p.Inputs), len(p.Outputs))
	}
	return p, nil
}
