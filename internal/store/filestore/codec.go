package filestore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/taskwatch/internal/model"
)

// Dataset is the on-disk layout of a dataset file.
type Dataset struct {
	Tasks     []model.Task     `yaml:"tasks" toml:"tasks"`
	Employees []model.Employee `yaml:"employees" toml:"employees"`
	Meetings  []model.Meeting  `yaml:"meetings" toml:"meetings"`
}

// codec converts a Dataset to and from bytes.
type codec interface {
	decode(data []byte, ds *Dataset) error
	encode(ds *Dataset) ([]byte, error)
}

type yamlCodec struct{}

func (yamlCodec) decode(data []byte, ds *Dataset) error {
	return yaml.Unmarshal(data, ds)
}

func (yamlCodec) encode(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type tomlCodec struct{}

func (tomlCodec) decode(data []byte, ds *Dataset) error {
	_, err := toml.Decode(string(data), ds)
	return err
}

func (tomlCodec) encode(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// codecFor picks a codec from the dataset file extension.
func codecFor(path string) (codec, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	case ".toml":
		return tomlCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported dataset extension %q", ext)
	}
}
