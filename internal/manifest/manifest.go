// Package manifest reads and writes the models manifest consumed by the chat
// client. The encoding follows the file extension: .json (default), .yaml,
// .yml or .toml.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelsetup/pkg/types"
)

const (
	// DefaultPath is where the chat client looks for the manifest.
	DefaultPath = "models.json"
	GeneratedBy = "modelsetup"
	Note        = "This file is auto-generated. Run modelsetup to refresh."
)

type format int

const (
	formatJSON format = iota
	formatYAML
	formatTOML
)

func formatOf(path string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("unsupported manifest extension: %s", ext)
	}
}

// CheckFormat returns an error if path has an extension Write cannot encode.
func CheckFormat(path string) error {
	_, err := formatOf(path)
	return err
}

// New builds a manifest listing records in the given order.
func New(records []types.ModelRecord) types.Manifest {
	return types.Manifest{
		Models:      append([]types.ModelRecord(nil), records...),
		GeneratedBy: GeneratedBy,
		Note:        Note,
	}
}

// Write replaces the file at path with m.
func Write(path string, m types.Manifest) (err error) {
	if path == "" {
		return errors.New("empty manifest path")
	}
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	if m.Models == nil {
		m.Models = []types.ModelRecord{}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := encode(out, f, m); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// encode writes m to w in the given format with 2-space indentation.
func encode(w io.Writer, f format, m types.Manifest) error {
	switch f {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		enc.SetIndentSymbol("  ")
		return enc.Encode(m)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(m)
	}
}

// Read loads a manifest written by Write.
func Read(path string) (types.Manifest, error) {
	var m types.Manifest
	if path == "" {
		return m, errors.New("empty manifest path")
	}
	f, err := formatOf(path)
	if err != nil {
		return m, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	switch f {
	case formatYAML:
		err = yaml.Unmarshal(b, &m)
	case formatTOML:
		err = toml.Unmarshal(b, &m)
	default:
		err = json.Unmarshal(b, &m)
	}
	if err != nil {
		return m, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}
