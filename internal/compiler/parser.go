// Package compiler turns raw flow documents (JSON or YAML) into validated
// domain.FlowDefinition values.
package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/fable/pkg/domain"
)

// Parser converts raw bytes into a FlowDefinition.
type Parser struct{}

// NewParser creates a parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile loads a definition from disk, picking the decoder from the
// file extension (.yaml/.yml, anything else is treated as JSON).
func (p *Parser) ParseFile(path string) (*domain.FlowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return p.ParseYAML(data)
	default:
		return p.Parse(data)
	}
}

// Parse decodes a JSON flow document.
func (p *Parser) Parse(data []byte) (*domain.FlowDefinition, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return p.decode(raw)
}

// ParseYAML decodes a YAML flow document.
func (p *Parser) ParseYAML(data []byte) (*domain.FlowDefinition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return p.decode(raw)
}

// decode maps the raw document onto the domain type. mapstructure honors
// the same json tags the wire format uses, so both decoders share one
// mapping.
func (p *Parser) decode(raw map[string]any) (*domain.FlowDefinition, error) {
	var def domain.FlowDefinition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &def,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}
	if err := checkShape(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// checkShape enforces the structural minimum before a definition reaches
// the engine or a store. Semantic checks (reachability, conditions) belong
// to pkg/analysis.
func checkShape(def *domain.FlowDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("flow missing id")
	}
	if def.StartNodeID == "" {
		return fmt.Errorf("flow %q missing startNodeId", def.ID)
	}
	if len(def.Nodes) == 0 {
		return fmt.Errorf("flow %q has no nodes", def.ID)
	}

	nodeIDs := make(map[string]bool, len(def.Nodes))
	outletIDs := make(map[string]string)
	for i := range def.Nodes {
		node := &def.Nodes[i]
		if node.ID == "" {
			return fmt.Errorf("flow %q: node %d missing id", def.ID, i)
		}
		if nodeIDs[node.ID] {
			return fmt.Errorf("flow %q: duplicate node id %q", def.ID, node.ID)
		}
		nodeIDs[node.ID] = true

		for j := range node.Outlets {
			outlet := &node.Outlets[j]
			if outlet.ID == "" {
				return fmt.Errorf("flow %q: node %q outlet %d missing id", def.ID, node.ID, j)
			}
			if owner, dup := outletIDs[outlet.ID]; dup {
				return fmt.Errorf("flow %q: outlet id %q used by both %q and %q", def.ID, outlet.ID, owner, node.ID)
			}
			outletIDs[outlet.ID] = node.ID
			if outlet.To == "" {
				return fmt.Errorf("flow %q: outlet %q missing target", def.ID, outlet.ID)
			}
		}
	}

	if !nodeIDs[def.StartNodeID] {
		return fmt.Errorf("flow %q: startNodeId %q does not match any node", def.ID, def.StartNodeID)
	}
	return nil
}
