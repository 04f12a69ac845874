package config

import (
	"bytes"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AndCell is the cell every realized gate is mapped to.
const AndCell = "AND2"

type Cell struct {
	Area  float64 `yaml:"area" validate:"gt=0"`
	Delay float64 `yaml:"delay" validate:"gte=0"`
	Power float64 `yaml:"power" validate:"gte=0"`
}

// Library is a cell library reduced to what the and-inverter model needs.
type Library struct {
	Name  string          `yaml:"name" validate:"required"`
	Cells map[string]Cell `yaml:"cells" validate:"required,dive,keys,required,endkeys"`
}

// UnitLibrary prices every gate at one unit of area, delay and power.
func UnitLibrary() *Library {
	return &Library{
		Name:  "unit",
		Cells: map[string]Cell{AndCell: {Area: 1, Delay: 1, Power: 1}},
	}
}

func (l *Library) And() Cell { return l.Cells[AndCell] }

func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&lib); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "could not decode library: %v", err)
	}
	if err := validator.New().Struct(&lib); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "library: %v", err)
	}
	if _, ok := lib.Cells[AndCell]; !ok {
		return nil, errors.Wrapf(ErrInvalidConfig, "library %s has no %s cell", lib.Name, AndCell)
	}
	return &lib, nil
}

// LoadLibrary reads the library at path, or returns the unit library when
// path is empty. A missing file is a configuration error.
func LoadLibrary(path string) (*Library, error) {
	if path == "" {
		return UnitLibrary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "library %q: %v", path, err)
	}
	return ParseLibrary(data)
}
