package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

// Document is the flat fact record shape produced by the ontology parsing
// collaborator. The engine core never sees the originating serialization;
// this package is the boundary where documents become RawFact sequences.
type Document struct {
	Aliases []authz.AliasDeclaration `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Facts   []authz.RawFact          `json:"facts" yaml:"facts"`
}

// LoadFile reads a fact document from disk. The format is chosen by
// extension: .json for JSON, .yaml/.yml for YAML. Structural rule problems
// (bad effects, malformed constraints) are the compiler's to report; this
// only fails on unreadable or undecodable documents.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fact document %s: %w", path, err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode JSON fact document %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML fact document %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported fact document extension %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}

	if len(doc.Facts) == 0 {
		return nil, fmt.Errorf("fact document %s contains no facts", path)
	}

	return &doc, nil
}
