package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/model"
)

// Neo4jConfig locates a Neo4j database.
type Neo4jConfig struct {
	URI      string // e.g. bolt://localhost:7687
	User     string
	Password string
	Database string // empty for the server default
}

// entityLabel is added to every imported node so the id index covers all
// node types.
const entityLabel = "Entity"

var cypherIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const searchQuery = `
MATCH (n)
WHERE toLower(n.name) CONTAINS toLower($term) OR toString(n.id) = $term
WITH n
OPTIONAL MATCH (n)-[r]-(neighbor)
RETURN
  collect(DISTINCT {
    id: toString(n.id),
    name: n.name,
    type: [l IN labels(n) WHERE l <> 'Entity'][0],
    properties: properties(n)
  })[0] AS main_node,
  collect(DISTINCT CASE WHEN neighbor IS NULL THEN NULL ELSE {
    id: toString(neighbor.id),
    name: neighbor.name,
    type: [l IN labels(neighbor) WHERE l <> 'Entity'][0],
    properties: properties(neighbor)
  } END) AS neighbors,
  collect(DISTINCT CASE WHEN r IS NULL THEN NULL ELSE {
    source: toString(startNode(r).id),
    target: toString(endNode(r).id),
    type: type(r)
  } END) AS relationships
`

// Neo4j is a store backed by a Neo4j database.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j connects and verifies connectivity.
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	// The database may still be starting.
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(driver.VerifyConnectivity(ctx))
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connect %s: %w", cfg.URI, err)
	}
	return &Neo4j{driver: driver, database: cfg.Database}, nil
}

func (s *Neo4j) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// Search implements Store.
func (s *Neo4j) Search(ctx context.Context, term string) (*model.SearchData, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, searchQuery, map[string]any{"term": term})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	mainRaw, _ := record.Get("main_node")
	mainMap, ok := mainRaw.(map[string]any)
	if !ok || mainMap == nil {
		return nil, ErrNotFound
	}

	data := &model.SearchData{Nodes: []model.Node{nodeFromMap(mainMap)}, Edges: []model.Edge{}}
	if raw, ok := record.Get("neighbors"); ok {
		for _, item := range asList(raw) {
			if m, ok := item.(map[string]any); ok {
				n := nodeFromMap(m)
				if n.ID != data.Nodes[0].ID {
					data.Nodes = append(data.Nodes, n)
				}
			}
		}
	}
	if raw, ok := record.Get("relationships"); ok {
		for _, item := range asList(raw) {
			if m, ok := item.(map[string]any); ok {
				data.Edges = append(data.Edges, model.Edge{
					Source: model.ID(stringValue(m["source"])),
					Target: model.ID(stringValue(m["target"])),
					Type:   model.EdgeType(stringValue(m["type"])),
				})
			}
		}
	}
	return data, nil
}

// Import implements Importer. Node labels are the node types, relationship
// types the edge types; both must be valid Cypher identifiers.
func (s *Neo4j) Import(ctx context.Context, d *dataset.Dataset, opts ImportOptions) (ImportStats, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	exec := func(query string, params map[string]any) error {
		res, err := session.Run(ctx, query, params)
		if err != nil {
			return err
		}
		_, err = res.Consume(ctx)
		return err
	}

	if opts.Clear {
		if err := exec("MATCH (n) DETACH DELETE n", nil); err != nil {
			return ImportStats{}, fmt.Errorf("clear: %w", err)
		}
	}
	if err := exec("CREATE INDEX entity_id IF NOT EXISTS FOR (n:"+entityLabel+") ON (n.id)", nil); err != nil {
		return ImportStats{}, fmt.Errorf("create index: %w", err)
	}

	var stats ImportStats
	byLabel := make(map[string][]any)
	var labels []string
	for _, n := range d.Nodes {
		label := string(n.Type)
		if !cypherIdent.MatchString(label) {
			label = "Unknown"
		}
		if _, ok := byLabel[label]; !ok {
			labels = append(labels, label)
		}
		props := neo4jProps(n.Properties)
		props["id"] = string(n.ID)
		props["name"] = n.Name
		byLabel[label] = append(byLabel[label], props)
	}
	for _, label := range labels {
		query := "UNWIND $rows AS row CREATE (n:" + entityLabel + ":" + label + ") SET n = row"
		for _, batch := range batches(byLabel[label], opts.batchSize()) {
			if err := exec(query, map[string]any{"rows": batch}); err != nil {
				return stats, fmt.Errorf("create %s nodes: %w", label, err)
			}
			stats.Nodes += len(batch)
		}
	}

	valid := d.ValidEdges()
	stats.SkippedEdges = len(d.Edges) - len(valid)
	byType := make(map[string][]any)
	var types []string
	for _, e := range valid {
		t := string(e.Type)
		if !cypherIdent.MatchString(t) {
			stats.SkippedEdges++
			continue
		}
		if _, ok := byType[t]; !ok {
			types = append(types, t)
		}
		byType[t] = append(byType[t], map[string]any{"source": string(e.Source), "target": string(e.Target)})
	}
	for _, t := range types {
		query := "UNWIND $rows AS row " +
			"MATCH (a:" + entityLabel + " {id: row.source}), (b:" + entityLabel + " {id: row.target}) " +
			"CREATE (a)-[:" + t + "]->(b)"
		for _, batch := range batches(byType[t], opts.batchSize()) {
			if err := exec(query, map[string]any{"rows": batch}); err != nil {
				return stats, fmt.Errorf("create %s relationships: %w", t, err)
			}
			stats.Edges += len(batch)
		}
	}
	return stats, nil
}

// Close closes the driver.
func (s *Neo4j) Close(ctx context.Context) error { return s.driver.Close(ctx) }

var _ Backend = (*Neo4j)(nil)

// =============================================================================
// Value Conversion
// =============================================================================

func nodeFromMap(m map[string]any) model.Node {
	n := model.Node{
		ID:   model.ID(stringValue(m["id"])),
		Name: stringValue(m["name"]),
		Type: model.NodeType(stringValue(m["type"])),
	}
	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		n.Properties = make(map[string]any, len(props))
		for k, v := range props {
			if k == "id" || k == "name" {
				continue
			}
			n.Properties[k] = plainNeo4jValue(v)
		}
	}
	return n
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// plainNeo4jValue flattens driver temporal and spatial types to strings so
// they encode cleanly as JSON.
func plainNeo4jValue(v any) any {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainNeo4jValue(e)
		}
		return out
	}
	return fmt.Sprint(v)
}

// neo4jProps keeps the property values Neo4j can store: scalars and
// homogeneous lists of scalars.
func neo4jProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+2)
	for k, v := range props {
		switch x := v.(type) {
		case bool, int64, float64, string:
			out[k] = x
		case int:
			out[k] = int64(x)
		case []any:
			out[k] = x
		}
	}
	return out
}

func batches(rows []any, size int) [][]any {
	var out [][]any
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}
