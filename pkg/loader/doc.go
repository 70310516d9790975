// Package loader fetches a keyword's neighbourhood from the search API and
// builds the graph handed to the layout and rendering surfaces.
//
// # Pipeline
//
//  1. Fetch nodes and edges for the keyword through a [Fetcher].
//  2. Index nodes by identifier, skipping records without one.
//  3. Find the focus node: the first indexed node whose name equals the
//     keyword, ignoring case.
//  4. Insert nodes and edges according to the resolved [filter.Mode].
//
// Without a focus node the full graph is built whatever the filters say.
// Malformed records are dropped and counted in [Result.Skipped]; they never
// fail a load.
//
// # Errors
//
// A payload with success=false surfaces its own error string, or
// [errors.LoadFailedMessage] when it carries none. Transport and decode
// failures always surface the generic message; the cause is kept for logging.
//
// # Sessions
//
// A [Session] serializes loads for an interactive surface: each [Session.Submit]
// cancels the request before it, and a superseded request can never overwrite
// the session state even if its response arrives last.
package loader
