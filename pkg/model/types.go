package model

import (
	"bytes"
	"encoding/json"
	"slices"
)

// =============================================================================
// Node Types
// =============================================================================

// NodeType is the label of a node in the knowledge graph.
type NodeType string

// Known node types.
const (
	NodePerson       NodeType = "Person"
	NodeSong         NodeType = "Song"
	NodeRecordLabel  NodeType = "RecordLabel"
	NodeAlbum        NodeType = "Album"
	NodeMusicalGroup NodeType = "MusicalGroup"
)

// NodeTypes lists the known node types in display order.
var NodeTypes = []NodeType{NodePerson, NodeSong, NodeRecordLabel, NodeAlbum, NodeMusicalGroup}

// Known reports whether t is one of the enumerated node types.
func (t NodeType) Known() bool { return slices.Contains(NodeTypes, t) }

// UnmarshalJSON decodes a string label. Any other JSON value is an unknown
// type and gets the default style.
func (t *NodeType) UnmarshalJSON(data []byte) error {
	*t = NodeType(jsonLabel(data))
	return nil
}

// =============================================================================
// Edge Types
// =============================================================================

// EdgeType is the relation kind of an edge in the knowledge graph.
type EdgeType string

// Influence relations: creative derivation from another work or artist.
const (
	EdgeInterpolatesFrom   EdgeType = "InterpolatesFrom"
	EdgeCoverOf            EdgeType = "CoverOf"
	EdgeDirectlySamples    EdgeType = "DirectlySamples"
	EdgeLyricalReferenceTo EdgeType = "LyricalReferenceTo"
	EdgeInStyleOf          EdgeType = "InStyleOf"
)

// Collaboration relations: direct professional involvement.
const (
	EdgePerformerOf EdgeType = "PerformerOf"
	EdgeComposerOf  EdgeType = "ComposerOf"
	EdgeProducerOf  EdgeType = "ProducerOf"
	EdgeMemberOf    EdgeType = "MemberOf"
	EdgeLyricistOf  EdgeType = "LyricistOf"
)

// Other relation kinds present in the dataset. They only appear in the
// unfiltered view.
const (
	EdgeRecordedBy    EdgeType = "RecordedBy"
	EdgeDistributedBy EdgeType = "DistributedBy"
	EdgeNotable       EdgeType = "Notable"
)

// InfluenceEdgeTypes is the influence family.
var InfluenceEdgeTypes = []EdgeType{
	EdgeInterpolatesFrom,
	EdgeCoverOf,
	EdgeDirectlySamples,
	EdgeLyricalReferenceTo,
	EdgeInStyleOf,
}

// CollaborationEdgeTypes is the collaboration family.
var CollaborationEdgeTypes = []EdgeType{
	EdgePerformerOf,
	EdgeComposerOf,
	EdgeProducerOf,
	EdgeMemberOf,
	EdgeLyricistOf,
}

// IsInfluence reports whether t belongs to the influence family.
func (t EdgeType) IsInfluence() bool { return slices.Contains(InfluenceEdgeTypes, t) }

// IsCollaboration reports whether t belongs to the collaboration family.
func (t EdgeType) IsCollaboration() bool { return slices.Contains(CollaborationEdgeTypes, t) }

// UnmarshalJSON decodes a string label. Any other JSON value is an unknown
// relation.
func (t *EdgeType) UnmarshalJSON(data []byte) error {
	*t = EdgeType(jsonLabel(data))
	return nil
}

func jsonLabel(data []byte) string {
	var s string
	if data = bytes.TrimSpace(data); len(data) > 0 && data[0] == '"' {
		_ = json.Unmarshal(data, &s)
	}
	return s
}

// =============================================================================
// Records
// =============================================================================

// Node is a node record as returned by the search API.
type Node struct {
	ID         ID             `json:"id" bson:"id"`
	Name       string         `json:"name,omitempty" bson:"name,omitempty"`
	Type       NodeType       `json:"type,omitempty" bson:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty" bson:"properties,omitempty"`
}

// Edge is a directed, typed relationship record.
type Edge struct {
	Source ID       `json:"source" bson:"source"`
	Target ID       `json:"target" bson:"target"`
	Type   EdgeType `json:"type" bson:"type"`
}

// Touches reports whether id is either endpoint of e.
func (e Edge) Touches(id ID) bool { return e.Source == id || e.Target == id }

// Valid reports whether both endpoints are present.
func (e Edge) Valid() bool { return !e.Source.IsZero() && !e.Target.IsZero() }

// SearchData is the payload of a successful search.
type SearchData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	// Records that could not be decoded and were dropped.
	MalformedNodes int `json:"-" bson:"-"`
	MalformedEdges int `json:"-" bson:"-"`
}

// UnmarshalJSON decodes the node and edge lists record by record. A record
// that does not decode is dropped and counted; it never fails the payload.
func (d *SearchData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = SearchData{}
	d.Nodes, d.MalformedNodes = decodeRecords[Node](raw.Nodes)
	d.Edges, d.MalformedEdges = decodeRecords[Edge](raw.Edges)
	return nil
}

func decodeRecords[T any](raw []json.RawMessage) (out []T, malformed int) {
	if raw == nil {
		return nil, 0
	}
	out = make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			malformed++
			continue
		}
		out = append(out, v)
	}
	return out, malformed
}

// SearchResponse is the envelope returned by GET /api/search-node/{keyword}.
type SearchResponse struct {
	Success bool        `json:"success"`
	Data    *SearchData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
