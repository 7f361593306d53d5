package mediastorage

import (
	"context"
	"fmt"
)

// collectionPlan is the resolved collection identity for one create
// batch, plus the scope order values are allocated in.
type collectionPlan struct {
	id         uint64
	name       string
	orderScope MediaFilter
}

// resolveCollection recovers the collection id/name pair for the batch.
// When the caller supplies one half of an existing collection, the other
// half comes from the first record already in that scope; a fresh name
// (or no collection at all) allocates a new global collection id. With
// an owner and no collection, ordering runs over the owner's shared
// default scope.
//
// The sequencer only reads current extrema; it never renames or deletes
// existing collections.
func (m *DefaultMediaStorage) resolveCollection(ctx context.Context, owner *Owner, collectionID uint64, collectionName string) (collectionPlan, error) {
	switch {
	case collectionID != 0:
		scope := MediaFilter{Owner: owner, CollectionID: collectionID}

		name := collectionName
		first, err := m.repository.FirstMatching(ctx, scope)
		if err != nil {
			return collectionPlan{}, fmt.Errorf("failed to resolve collection %d: %w", collectionID, err)
		}
		if first != nil {
			name = first.CollectionName
		}

		return collectionPlan{id: collectionID, name: name, orderScope: scope}, nil

	case collectionName != "":
		scope := MediaFilter{Owner: owner, CollectionName: collectionName}

		first, err := m.repository.FirstMatching(ctx, scope)
		if err != nil {
			return collectionPlan{}, fmt.Errorf("failed to resolve collection %q: %w", collectionName, err)
		}
		if first != nil {
			return collectionPlan{id: first.CollectionID, name: collectionName, orderScope: scope}, nil
		}

		id, err := m.nextCollectionID(ctx)
		if err != nil {
			return collectionPlan{}, err
		}
		return collectionPlan{id: id, name: collectionName, orderScope: scope}, nil

	case owner != nil:
		// Owner with no collection: records share the owner's default
		// order sequence and get no collection identity of their own.
		return collectionPlan{orderScope: MediaFilter{Owner: owner}}, nil

	default:
		id, err := m.nextCollectionID(ctx)
		if err != nil {
			return collectionPlan{}, err
		}
		return collectionPlan{id: id, orderScope: MediaFilter{CollectionID: id}}, nil
	}
}

func (m *DefaultMediaStorage) nextCollectionID(ctx context.Context) (uint64, error) {
	max, err := m.repository.MaxCollectionID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate collection id: %w", err)
	}
	return max + 1, nil
}
