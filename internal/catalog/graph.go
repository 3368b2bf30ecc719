package catalog

import "fmt"

// GraphNode is an entity in the relationship graph. ID is
// "<manifest path>#<entity name>".
type GraphNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Manifest string `json:"manifest"`
}

// GraphLink is a relationship between two graph nodes.
type GraphLink struct {
	Source        string `json:"source"`
	Target        string `json:"target"`
	FromAttribute string `json:"from_attribute"`
	ToAttribute   string `json:"to_attribute"`
}

func nodeID(manifest, name string) string {
	return manifest + "#" + name
}

// Graph returns every entity as a node and every relationship whose two
// endpoints are catalogued in the same manifest as a link.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	entities, err := db.Entities("")
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: graph: %w", err)
	}
	nodes := make([]GraphNode, 0, len(entities))
	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		id := nodeID(e.Manifest, e.Name)
		if _, dup := known[id]; dup {
			continue
		}
		known[id] = struct{}{}
		nodes = append(nodes, GraphNode{ID: id, Name: e.Name, Manifest: e.Manifest})
	}

	rels, err := db.Relationships("")
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: graph: %w", err)
	}
	links := []GraphLink{}
	for _, r := range rels {
		src, dst := nodeID(r.Manifest, r.FromEntity), nodeID(r.Manifest, r.ToEntity)
		_, okSrc := known[src]
		_, okDst := known[dst]
		if !okSrc || !okDst {
			continue
		}
		links = append(links, GraphLink{
			Source:        src,
			Target:        dst,
			FromAttribute: r.FromAttribute,
			ToAttribute:   r.ToAttribute,
		})
	}
	return nodes, links, nil
}
