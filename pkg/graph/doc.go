// Package graph provides the directed multigraph handed to rendering surfaces.
//
// A [Graph] is rebuilt from scratch for every search: the loader inserts the
// nodes and edges selected by the active filter, a layout assigns positions,
// and a renderer serializes the result. Nothing is persisted between builds.
//
// # Structure
//
//   - Nodes are unique by ID and kept in insertion order.
//   - Edges are directed and may be parallel: two edges between the same pair
//     of nodes (even with the same label) are both kept, each with its own key.
//   - Self-loops are allowed.
//
// # Rendering Attributes
//
// Each [Node] carries {x, y, label, nodeType, color, size} plus the extra
// properties of the source record. Each [Edge] carries {label, size, color}.
//
// # Serialization
//
// [Marshal] and [Write] emit the graphology serialized format understood by
// sigma.js and other graphology-based front ends:
//
//	{
//	  "attributes": {},
//	  "options": {"type": "directed", "multi": true, "allowSelfLoops": true},
//	  "nodes": [{"key": "1", "attributes": {"x": 0.5, "y": 0, "label": "Sailor Shift", ...}}],
//	  "edges": [{"key": "e0", "source": "2", "target": "1", "attributes": {"label": "CoverOf", ...}}]
//	}
//
// [Unmarshal] and [ReadFile] parse the same format back into a Graph.
//
// # Concurrency
//
// Positions may be updated by a background layout worker while other
// goroutines read or serialize the graph; all methods take the graph's lock.
// Structural changes (AddNode, AddDirectedEdge) are expected to happen before
// the graph is shared.
package graph
