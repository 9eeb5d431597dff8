package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/infra/memory"
	"github.com/dvloznov/expense-coach/internal/store"
)

func TestInbox_MarkRead(t *testing.T) {
	ctx := context.Background()
	ds := memory.NewDatastore()
	_ = ds.CreateNotification(ctx, &domain.Notification{ID: "n1", UserID: "alice", CreatedAt: time.Now()})
	inbox := NewInbox(ds)

	tests := []struct {
		name    string
		userID  string
		id      string
		wantErr error
	}{
		{"not owner", "bob", "n1", ErrForbidden},
		{"missing", "alice", "nope", store.ErrNotFound},
		{"owner", "alice", "n1", nil},
		{"already read", "alice", "n1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := inbox.MarkRead(ctx, tt.userID, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !n.Read {
				t.Error("returned notification is not read")
			}
		})
	}
}

func TestInbox_List(t *testing.T) {
	ctx := context.Background()
	ds := memory.NewDatastore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_ = ds.CreateNotification(ctx, &domain.Notification{ID: "old", UserID: "alice", CreatedAt: base})
	_ = ds.CreateNotification(ctx, &domain.Notification{ID: "new", UserID: "alice", CreatedAt: base.AddDate(0, 0, 7)})
	_ = ds.CreateNotification(ctx, &domain.Notification{ID: "other", UserID: "bob", CreatedAt: base})

	list, err := NewInbox(ds).List(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Errorf("unexpected order %v", list)
	}
}
