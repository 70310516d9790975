// Package model defines the wire types returned by the search API and the
// fixed vocabulary of the music-influence knowledge graph.
//
// # Search Response
//
// The search endpoint returns:
//
//	{
//	  "success": true,
//	  "data": {
//	    "nodes": [{"id": 1, "name": "Sailor Shift", "type": "Person"}],
//	    "edges": [{"source": 2, "target": 1, "type": "LyricalReferenceTo"}]
//	  }
//	}
//
// Identifiers are string-coercible: numeric and string JSON values decode to
// the same [ID]. A missing or null identifier decodes to the empty ID and the
// record is treated as malformed by consumers.
//
// # Vocabulary
//
// [NodeType] and [EdgeType] enumerate the node labels and relation kinds of the
// dataset. Two edge families drive filtering:
//
//   - influence: CoverOf, DirectlySamples, InterpolatesFrom, LyricalReferenceTo, InStyleOf
//   - collaboration: PerformerOf, ComposerOf, ProducerOf, MemberOf, LyricistOf
//
// # Styles
//
// Node color and size are looked up from an explicit table keyed by
// [NodeType]; see [StyleFor]. Unknown types get [DefaultNodeStyle].
package model
