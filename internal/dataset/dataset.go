// Package dataset generates and clears the synthetic Person graph used to
// exercise watermarking end to end.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
)

const (
	// PersonType labels generated records.
	PersonType = "Person"
	// FriendsType labels generated relations.
	FriendsType = "Friends"

	maxAge = 85
)

// Summary counts what Populate created.
type Summary struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Populate creates records Person nodes with First_Name, Last_Name and Age
// fields, then links each to up to maxRelations random other records with
// Friends edges. Duplicate picks and self links are dropped.
//
// Names come from a faker seeded by one draw of src, so a seeded src
// reproduces the whole graph.
func Populate(ctx context.Context, store graph.Store, src sample.Source, logger *slog.Logger, records, maxRelations int) (Summary, error) {
	if records < 0 || maxRelations < 0 {
		return Summary{}, fmt.Errorf("populate: records and relations must not be negative")
	}

	faker := newFaker(src)

	var sum Summary
	ids := make([]graph.ID, 0, records)
	for range records {
		fields := graph.Fields{
			"First_Name": graph.String(faker.FirstName()),
			"Last_Name":  graph.String(faker.LastName()),
			"Age":        graph.Int(src.IntN(maxAge)),
		}
		id, err := store.CreateNode(ctx, fields, PersonType, false)
		if err != nil {
			return sum, fmt.Errorf("populate: %w", err)
		}
		ids = append(ids, id)
		sum.Nodes++
	}

	for _, id := range ids {
		k := src.IntN(maxRelations + 1)
		picks, err := sample.WithReplacement(src, len(ids), k)
		if err != nil {
			return sum, fmt.Errorf("populate: %w", err)
		}
		slices.Sort(picks)
		for _, i := range slices.Compact(picks) {
			if ids[i] == id {
				continue
			}
			if _, err := store.CreateEdge(ctx, id, ids[i], FriendsType, false); err != nil {
				return sum, fmt.Errorf("populate: %w", err)
			}
			sum.Edges++
		}
	}

	logger.Info("dataset populated", "nodes", sum.Nodes, "edges", sum.Edges)
	return sum, nil
}

// newFaker returns a name generator seeded from src.
func newFaker(src sample.Source) *gofakeit.Faker {
	seed := uint64(src.IntN(math.MaxInt))
	return gofakeit.NewFaker(rand.NewPCG(seed, seed), false)
}

// Reset deletes every node, and with them every edge, and returns how many
// nodes were removed.
func Reset(ctx context.Context, store graph.Store, logger *slog.Logger) (int, error) {
	ids, err := store.ReadAllIdentifiers(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	n, err := store.DeleteNodes(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	logger.Info("dataset reset", "nodes_deleted", n)
	return n, nil
}
