package expr

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// graphDoc is the serialized form shared by the JSON and YAML encodings.
type graphDoc struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// FromNodes rebuilds a frozen graph from a node list, typically one decoded
// from a dump. The list must pass Validate.
func FromNodes(nodes []Node) (Graph, error) {
	g := Graph{nodes: slices.Clone(nodes), frozen: true}
	var errs []error
	for _, v := range Validate(g) {
		if v.Severity == SeverityError {
			errs = append(errs, v)
		}
	}
	if len(errs) > 0 {
		return Graph{}, fmt.Errorf("invalid graph: %w", errors.Join(errs...))
	}
	return g, nil
}

func (g Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphDoc{Nodes: g.nodesOrEmpty()})
}

func (g *Graph) UnmarshalJSON(b []byte) error {
	var doc graphDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	decoded, err := FromNodes(doc.Nodes)
	if err != nil {
		return err
	}
	*g = decoded
	return nil
}

func (g Graph) MarshalYAML() (interface{}, error) {
	return graphDoc{Nodes: g.nodesOrEmpty()}, nil
}

func (g *Graph) UnmarshalYAML(value *yaml.Node) error {
	var doc graphDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	decoded, err := FromNodes(doc.Nodes)
	if err != nil {
		return err
	}
	*g = decoded
	return nil
}

func (g Graph) nodesOrEmpty() []Node {
	if g.nodes == nil {
		return []Node{}
	}
	return g.nodes
}
