// Package pkg provides the core libraries for influencegraph, an explorer for
// music-influence knowledge graphs.
//
// # Overview
//
// A keyword names an artist, song, album or group. influencegraph fetches the
// keyword's one-hop neighbourhood from a search API, filters it by relation
// type, lays it out and renders it. The pkg directory is organized into four
// areas:
//
//  1. Domain: [model], [filter], [graph], [layout]
//  2. Data: [api], [store], [dataset], [cache]
//  3. Orchestration: [loader], [pipeline], [server]
//  4. Output: [render], [render/nodelink]
//
// # Architecture
//
// The typical data flow:
//
//	MC1 dataset
//	     ↓
//	[store] (memory, Neo4j or MongoDB; served by [server])
//	     ↓
//	[api] client  GET /api/search-node/{keyword}
//	     ↓
//	[loader] (build graph, apply [filter] mode)
//	     ↓
//	[layout] (circular or ForceAtlas2)
//	     ↓
//	[render] JSON, DOT, SVG, PNG, PDF
//
// # Quick Start
//
//	client := api.NewClient("http://localhost:8000")
//	runner := pipeline.NewRunner(client, nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Keyword: "Sailor Shift",
//	    Filters: filter.Default(),
//	    Formats: []render.Format{render.FormatSVG},
//	})
//
// # Packages
//
// [model] - Wire types of the search API: nodes, links and the response
// envelope.
//
// [filter] - Filter switches, the derived mode and edge colours.
//
// [graph] - The directed multigraph handed to layout and rendering.
//
// [layout] - Circular and ForceAtlas2 layouts, plus a controller that
// restarts the force layout when the graph changes.
//
// [loader] - Fetches a keyword, builds the filtered graph and drops stale
// responses.
//
// [dataset] - Reads MC1 node-link exports.
//
// [store] - Graph backends behind the search API.
//
// [cache] - Caches search payloads and rendered artifacts in memory, on disk
// or in Redis.
//
// [pipeline] - Runs load, layout and render for the CLI and the server.
//
// [server] - HTTP server for search, rendered graphs, health and metrics.
//
// [errors] - Structured error codes and user-facing messages.
//
// [config] - TOML settings with environment overrides.
//
// # Testing
//
//	go test ./...
//
// Neo4j, MongoDB and Redis tests run only when NEO4J_URI, MONGO_URI or
// REDIS_ADDR is set.
//
// [model]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/model
// [filter]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/filter
// [graph]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/layout
// [loader]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/loader
// [dataset]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/dataset
// [store]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/cache
// [api]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/api
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/server
// [render]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/render/nodelink
// [errors]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/errors
// [config]: https://pkg.go.dev/github.com/matzehuels/influencegraph/pkg/config
package pkg
