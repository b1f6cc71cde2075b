package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lodestar/internal/ir"
)

// yamlFile is the authored YAML content layout. It mirrors the CUE layout
// so content can move between the two formats without renaming fields.
type yamlFile struct {
	Graphs []yamlGraph `yaml:"graphs"`
}

type yamlGraph struct {
	ID         string              `yaml:"id"`
	Kind       string              `yaml:"kind"`
	Title      string              `yaml:"title"`
	Branch     string              `yaml:"branch"`
	Start      string              `yaml:"start"`
	Locked     bool                `yaml:"locked"`
	Unlock     []ir.Requirement    `yaml:"unlock"`
	Completion []ir.Outcome        `yaml:"completion"`
	Nodes      map[string]yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	Title    string       `yaml:"title"`
	Speaker  string       `yaml:"speaker"`
	Body     string       `yaml:"body"`
	Location string       `yaml:"location"`
	Entry    []ir.Outcome `yaml:"entry"`
	Choices  []yamlChoice `yaml:"choices"`
}

type yamlChoice struct {
	ID       string           `yaml:"id"`
	Text     string           `yaml:"text"`
	Requires []ir.Requirement `yaml:"requires"`
	Outcomes []ir.Outcome     `yaml:"outcomes"`
	Next     ir.NextRef       `yaml:"next"`
}

// CompileYAML parses authored YAML content. Unknown fields are rejected.
// The returned map gives the source line of each graph for diagnostics.
func CompileYAML(data []byte) ([]ir.Graph, map[string]int, error) {
	var file yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("parse yaml: %w", err)
	}

	graphs := make([]ir.Graph, 0, len(file.Graphs))
	for _, yg := range file.Graphs {
		g := ir.Graph{
			ID:                 yg.ID,
			Kind:               ir.GraphKind(yg.Kind),
			Title:              yg.Title,
			BranchTag:          yg.Branch,
			StartNodeID:        yg.Start,
			Locked:             yg.Locked,
			UnlockRequirements: yg.Unlock,
			CompletionOutcomes: yg.Completion,
			Nodes:              make(map[string]ir.Node, len(yg.Nodes)),
		}
		for id, yn := range yg.Nodes {
			n := ir.Node{
				ID:                 id,
				Title:              yn.Title,
				Speaker:            yn.Speaker,
				Body:               yn.Body,
				LocationConstraint: yn.Location,
				EntryOutcomes:      yn.Entry,
			}
			for _, yc := range yn.Choices {
				n.Choices = append(n.Choices, ir.Choice{
					ID:           yc.ID,
					Text:         yc.Text,
					Requirements: yc.Requires,
					Outcomes:     yc.Outcomes,
					Next:         yc.Next,
				})
			}
			g.Nodes[id] = n
		}
		graphs = append(graphs, g)
	}

	return graphs, graphLines(data), nil
}

// graphLines maps graph ids to the line of their list item.
func graphLines(data []byte) map[string]int {
	lines := make(map[string]int)
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return lines
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "graphs" {
			continue
		}
		for _, item := range root.Content[i+1].Content {
			for j := 0; j+1 < len(item.Content); j += 2 {
				if item.Content[j].Value == "id" {
					lines[item.Content[j+1].Value] = item.Line
				}
			}
		}
	}
	return lines
}
