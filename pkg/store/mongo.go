package store

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/model"
)

// MongoConfig locates a MongoDB database.
type MongoConfig struct {
	URI      string // e.g. mongodb://localhost:27017
	Database string // defaults to DefaultMongoDatabase
}

// DefaultMongoDatabase is used when MongoConfig.Database is empty.
const DefaultMongoDatabase = "influencegraph"

// Collection names.
const (
	nodesCollection = "nodes"
	edgesCollection = "edges"
)

// Mongo is a store keeping nodes and edges in two collections.
type Mongo struct {
	client *mongo.Client
	nodes  *mongo.Collection
	edges  *mongo.Collection
}

// NewMongo connects and pings the server.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	name := cfg.Database
	if name == "" {
		name = DefaultMongoDatabase
	}
	db := client.Database(name)
	return &Mongo{
		client: client,
		nodes:  db.Collection(nodesCollection),
		edges:  db.Collection(edgesCollection),
	}, nil
}

// Search implements Store.
func (s *Mongo) Search(ctx context.Context, term string) (*model.SearchData, error) {
	filter := bson.M{"$or": []bson.M{
		{"name": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}},
		{"id": term},
	}}
	var matches []model.Node
	if err := s.find(ctx, s.nodes, filter, &matches); err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	ids := make([]model.ID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	var incident []model.Edge
	edgeFilter := bson.M{"$or": []bson.M{
		{"source": bson.M{"$in": ids}},
		{"target": bson.M{"$in": ids}},
	}}
	if err := s.find(ctx, s.edges, edgeFilter, &incident); err != nil {
		return nil, fmt.Errorf("search %q edges: %w", term, err)
	}

	var neighbourIDs []model.ID
	for _, e := range incident {
		neighbourIDs = append(neighbourIDs, e.Source, e.Target)
	}
	var neighbours []model.Node
	if len(neighbourIDs) > 0 {
		if err := s.find(ctx, s.nodes, bson.M{"id": bson.M{"$in": neighbourIDs}}, &neighbours); err != nil {
			return nil, fmt.Errorf("search %q neighbours: %w", term, err)
		}
	}
	byID := make(map[model.ID]model.Node, len(neighbours)+len(matches))
	for _, n := range append(neighbours, matches...) {
		byID[n.ID] = n
	}

	return assemble(matches, incident, func(id model.ID) (model.Node, bool) {
		n, ok := byID[id]
		return n, ok
	}), nil
}

func (s *Mongo) find(ctx context.Context, coll *mongo.Collection, filter any, out any) error {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

// Import implements Importer.
func (s *Mongo) Import(ctx context.Context, d *dataset.Dataset, opts ImportOptions) (ImportStats, error) {
	if opts.Clear {
		if err := s.nodes.Drop(ctx); err != nil {
			return ImportStats{}, fmt.Errorf("drop nodes: %w", err)
		}
		if err := s.edges.Drop(ctx); err != nil {
			return ImportStats{}, fmt.Errorf("drop edges: %w", err)
		}
	}

	if _, err := s.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}}); err != nil {
		return ImportStats{}, fmt.Errorf("index nodes: %w", err)
	}
	if _, err := s.edges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "source", Value: 1}}},
		{Keys: bson.D{{Key: "target", Value: 1}}},
	}); err != nil {
		return ImportStats{}, fmt.Errorf("index edges: %w", err)
	}

	var stats ImportStats
	nodeDocs := make([]any, len(d.Nodes))
	for i, n := range d.Nodes {
		nodeDocs[i] = n
	}
	for _, batch := range batches(nodeDocs, opts.batchSize()) {
		res, err := s.nodes.InsertMany(ctx, batch)
		if err != nil {
			return stats, fmt.Errorf("insert nodes: %w", err)
		}
		stats.Nodes += len(res.InsertedIDs)
	}

	valid := d.ValidEdges()
	stats.SkippedEdges = len(d.Edges) - len(valid)
	edgeDocs := make([]any, len(valid))
	for i, e := range valid {
		edgeDocs[i] = e
	}
	for _, batch := range batches(edgeDocs, opts.batchSize()) {
		res, err := s.edges.InsertMany(ctx, batch)
		if err != nil {
			return stats, fmt.Errorf("insert edges: %w", err)
		}
		stats.Edges += len(res.InsertedIDs)
	}
	return stats, nil
}

// Close disconnects the client.
func (s *Mongo) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

var _ Backend = (*Mongo)(nil)
