package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func TestLockItemMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user := newReporter(t, database)
	report, _ := CreateReport(ctx, database, NewReport{UserID: user.ID, Type: model.ReportLost, Category: model.CategoryOther})

	tx, err := beginItemTx(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	if err := lockItem(ctx, tx, database.Dialect, report.ItemID); err != nil {
		t.Errorf("lockItem existing: %v", err)
	}
	if err := lockItem(ctx, tx, database.Dialect, report.ItemID+100); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("lockItem missing: expected ErrNotFound, got %v", err)
	}
}

// deleteLastTwoConcurrently files two reports against one item, deletes
// both at once and checks that exactly one deletion removed the item.
func deleteLastTwoConcurrently(t *testing.T, database *db.DB, userID int64) {
	t.Helper()
	ctx := context.Background()

	first, err := CreateReport(ctx, database, NewReport{UserID: userID, Type: model.ReportLost, Category: model.CategoryUmbrella})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	second, err := AddReportToItem(ctx, database, userID, first.ItemID, model.ReportFound)
	if err != nil {
		t.Fatalf("AddReportToItem: %v", err)
	}

	var orphans [2]*model.Item
	var g errgroup.Group
	for i, id := range []int64{first.ID, second.ID} {
		g.Go(func() error {
			orphan, err := DeleteReport(ctx, database, id)
			orphans[i] = orphan
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent DeleteReport: %v", err)
	}

	deleted := 0
	for _, o := range orphans {
		if o != nil {
			deleted++
		}
	}
	if deleted != 1 {
		t.Errorf("expected exactly one deletion to remove the item, got %d", deleted)
	}
	if item, _ := GetItem(ctx, database, first.ItemID); item != nil {
		t.Errorf("item %d left without reports", first.ItemID)
	}
}

func TestDeleteLastTwoReportsConcurrently(t *testing.T) {
	database := db.NewTestDB(t)
	user := newReporter(t, database)
	for range 5 {
		deleteLastTwoConcurrently(t, database, user.ID)
	}
}

func TestDeleteLastTwoReportsConcurrentlyMySQL(t *testing.T) {
	database := db.NewMySQLTestDB(t)
	ctx := context.Background()

	email := fmt.Sprintf("cascade-%d@campus.local", time.Now().UnixNano())
	user, err := CreateUser(ctx, database, "Cascade", email, "hash", model.RoleStudent)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	t.Cleanup(func() {
		database.Exec(`DELETE FROM reports WHERE user_id = ?`, user.ID)
		database.Exec(`DELETE FROM users WHERE id = ?`, user.ID)
	})

	for range 20 {
		deleteLastTwoConcurrently(t, database, user.ID)
	}
}
