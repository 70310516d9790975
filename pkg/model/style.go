package model

// NodeStyle holds the rendering attributes derived from a node type.
type NodeStyle struct {
	Color string
	Size  float64
}

// EdgeStyle holds the rendering attributes of an edge.
type EdgeStyle struct {
	Color string
	Size  float64
}

// DefaultNodeStyle applies to node types missing from the style table.
var DefaultNodeStyle = NodeStyle{Color: "#999", Size: 7}

var nodeStyles = map[NodeType]NodeStyle{
	NodePerson:       {Color: "#4CAF50", Size: 8},
	NodeSong:         {Color: "#2196F3", Size: 6},
	NodeRecordLabel:  {Color: "#F44336", Size: 12},
	NodeAlbum:        {Color: "#9C27B0", Size: 10},
	NodeMusicalGroup: {Color: "#FF9800", Size: 7},
}

// StyleFor returns the style for t and whether t was a known type.
// Unknown types get DefaultNodeStyle and ok=false.
func StyleFor(t NodeType) (style NodeStyle, ok bool) {
	if s, found := nodeStyles[t]; found {
		return s, true
	}
	return DefaultNodeStyle, false
}

// Edge styles for the filtered and unfiltered views.
var (
	FilteredEdgeStyle   = EdgeStyle{Color: "orangered", Size: 2}
	UnfilteredEdgeStyle = EdgeStyle{Color: "#888", Size: 1}
)
