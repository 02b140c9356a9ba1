package store

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/domain"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyMapsStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", status.Error(codes.NotFound, "missing"), domain.ErrNotFound},
		{"permission", status.Error(codes.PermissionDenied, "rules"), domain.ErrPermissionDenied},
		{"unauthenticated", status.Error(codes.Unauthenticated, "token"), domain.ErrPermissionDenied},
		{"unavailable", status.Error(codes.Unavailable, "down"), domain.ErrRemoteUnavailable},
		{"deadline", context.DeadlineExceeded, domain.ErrRemoteUnavailable},
		{"invalid", status.Error(codes.InvalidArgument, "bad"), domain.ErrValidation},
		{"other", fmt.Errorf("boom"), domain.ErrUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("get", "locations", "x", tc.err)
			if !errors.Is(err, tc.want) {
				t.Fatalf("classify(%v) = %v, want %v", tc.err, err, tc.want)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("classify lost the cause: %v", err)
			}
		})
	}
}

func TestTopLevelPaths(t *testing.T) {
	paths := topLevelPaths(map[string]any{
		"openingHours": map[string]any{"monday": "8-12"},
		"name":         "Riverside Park",
	})

	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2: %v", len(paths), paths)
	}
	if len(paths[0]) != 1 || paths[0][0] != "name" || len(paths[1]) != 1 || paths[1][0] != "openingHours" {
		t.Fatalf("paths = %v, want [[name] [openingHours]]", paths)
	}
}
