package store

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore-backed implementation of the DocumentStore port.
// Timestamps are assigned server-side with firestore.ServerTimestamp.
type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

func (s *FirestoreStore) GetAll(ctx context.Context, collection string) (_ []ports.Document, err error) {
	defer obs.Time(ctx, "firestore.GetAll")(&err)

	if s.Client == nil {
		return nil, errors.New("firestore store: client is nil")
	}

	iter := s.Client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	return collect(iter, "get all", collection)
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (_ ports.Document, err error) {
	defer obs.Time(ctx, "firestore.Get")(&err)

	if s.Client == nil {
		return ports.Document{}, errors.New("firestore store: client is nil")
	}

	snap, err := s.Client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return ports.Document{}, classify("get", collection, id, err)
	}
	if !snap.Exists() {
		return ports.Document{}, domain.NewStoreError("get", collection, id, domain.ErrNotFound, nil)
	}

	return ports.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Set(
	ctx context.Context,
	collection string,
	id string,
	data map[string]any,
	merge bool,
) (err error) {
	defer obs.Time(ctx, "firestore.Set")(&err)

	if s.Client == nil {
		return errors.New("firestore store: client is nil")
	}
	if id == "" {
		return domain.NewStoreError("set", collection, id, domain.ErrValidation, fmt.Errorf("empty document id"))
	}

	payload := make(map[string]any, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["updatedAt"] = firestore.ServerTimestamp

	ref := s.Client.Collection(collection).Doc(id)
	if merge {
		_, err = ref.Set(ctx, payload, firestore.Merge(topLevelPaths(payload)...))
	} else {
		payload["createdAt"] = firestore.ServerTimestamp
		_, err = ref.Set(ctx, payload)
	}
	if err != nil {
		return classify("set", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) (err error) {
	defer obs.Time(ctx, "firestore.Delete")(&err)

	if s.Client == nil {
		return errors.New("firestore store: client is nil")
	}

	if _, err := s.Client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return classify("delete", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) FindBy(
	ctx context.Context,
	collection string,
	field string,
	value any,
) (_ []ports.Document, err error) {
	defer obs.Time(ctx, "firestore.FindBy")(&err)

	if s.Client == nil {
		return nil, errors.New("firestore store: client is nil")
	}

	iter := s.Client.Collection(collection).Where(field, "==", value).Documents(ctx)
	defer iter.Stop()

	return collect(iter, "find", collection)
}

// topLevelPaths lists the payload keys as field paths, so nested maps are
// replaced instead of merged key by key.
func topLevelPaths(payload map[string]any) []firestore.FieldPath {
	paths := make([]firestore.FieldPath, 0, len(payload))
	for k := range payload {
		paths = append(paths, firestore.FieldPath{k})
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i][0] < paths[j][0] })
	return paths
}

func collect(iter *firestore.DocumentIterator, op, collection string) ([]ports.Document, error) {
	out := make([]ports.Document, 0, 64)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(op, collection, "", err)
		}
		out = append(out, ports.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}

// classify maps gRPC status codes onto the domain error taxonomy.
func classify(op, collection, id string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewStoreError(op, collection, id, domain.ErrRemoteUnavailable, err)
	}

	var kind error
	switch status.Code(err) {
	case codes.NotFound:
		kind = domain.ErrNotFound
	case codes.PermissionDenied, codes.Unauthenticated:
		kind = domain.ErrPermissionDenied
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		kind = domain.ErrRemoteUnavailable
	case codes.InvalidArgument, codes.FailedPrecondition:
		kind = domain.ErrValidation
	default:
		kind = domain.ErrUnknown
	}
	return domain.NewStoreError(op, collection, id, kind, err)
}
