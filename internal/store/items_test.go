package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/refurbhq/refurbd/internal/db"
	"github.com/refurbhq/refurbd/internal/model"
)

func newTestItem(t *testing.T, database *sql.DB, companyID, modelName string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, &model.Item{
		Model:     modelName,
		CompanyID: companyID,
	}, "system")
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", modelName, err)
	}
	return item
}

func TestCreateItemDefaultsAndLog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	item := newTestItem(t, database, company.ID, "ThinkPad T480")

	if item.Status != model.StatusReceived {
		t.Errorf("expected status 'Received', got %q", item.Status)
	}
	if item.CompanyID != company.ID {
		t.Errorf("expected company %q, got %q", company.ID, item.CompanyID)
	}

	logs, err := ListLogs(ctx, database, item.ID, 50)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry after creation, got %d", len(logs))
	}
	if logs[0].Action != "Created item" {
		t.Errorf("expected 'Created item' log, got %q", logs[0].Action)
	}
	if logs[0].Actor != "system" {
		t.Errorf("expected actor 'system', got %q", logs[0].Actor)
	}
}

func TestChangeItemStatusLogsTransition(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	item := newTestItem(t, database, company.ID, "iPhone 12")

	action := "Status changed Received → In Repair"
	if err := ChangeItemStatus(ctx, database, item.ID, model.StatusInRepair, nil, "", "tech", action); err != nil {
		t.Fatalf("ChangeItemStatus: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.StatusInRepair {
		t.Errorf("expected status 'In Repair', got %q", got.Status)
	}
	if got.UpdatedAt.Before(item.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v -> %v", item.UpdatedAt, got.UpdatedAt)
	}

	logs, _ := ListLogs(ctx, database, item.ID, 50)
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	latest := logs[0]
	if !strings.Contains(latest.Action, model.StatusReceived) || !strings.Contains(latest.Action, model.StatusInRepair) {
		t.Errorf("transition log should name old and new status, got %q", latest.Action)
	}
}

func TestChangeItemStatusSoldFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	item := newTestItem(t, database, company.ID, "MacBook Air")

	shipBy := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	err := ChangeItemStatus(ctx, database, item.ID, model.StatusSold, &shipBy, "1 Main St", "system",
		"Status changed Received → Sold")
	if err != nil {
		t.Fatalf("ChangeItemStatus: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.StatusSold {
		t.Errorf("expected status 'Sold', got %q", got.Status)
	}
	if got.ShipBy == nil || !got.ShipBy.Equal(shipBy) {
		t.Errorf("expected ship_by %v, got %v", shipBy, got.ShipBy)
	}
	if got.BuyerAddress != "1 Main St" {
		t.Errorf("expected buyer address '1 Main St', got %q", got.BuyerAddress)
	}
}

func TestUpdateItemLogsAction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	item := newTestItem(t, database, company.ID, "PS5")

	item.Notes = "controller missing"
	if err := UpdateItem(ctx, database, item, "stocker", "Item updated"); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Notes != "controller missing" {
		t.Errorf("expected updated notes, got %q", got.Notes)
	}

	logs, _ := ListLogs(ctx, database, item.ID, 50)
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].Action != "Item updated" {
		t.Errorf("expected 'Item updated' log, got %q", logs[0].Action)
	}
}

func TestDeleteItemCascadesLogs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	company := newTestCompany(t, database, "Acme")
	item := newTestItem(t, database, company.ID, "Switch")
	AppendLog(ctx, database, item.ID, "tech", "Screen replaced")

	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected item to be gone")
	}

	count, err := CountLogs(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("CountLogs: %v", err)
	}
	if count != 0 {
		t.Errorf("expected logs to cascade on delete, found %d", count)
	}
}

func TestListItemsScopedAndFiltered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme := newTestCompany(t, database, "Acme")
	other := newTestCompany(t, database, "Other")

	laptop := newTestItem(t, database, acme.ID, "Dell XPS 13")
	newTestItem(t, database, acme.ID, "iPad Mini")
	newTestItem(t, database, other.ID, "Dell XPS 15")

	all, err := ListItems(ctx, database, acme.ID, "", "")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 items for Acme, got %d", len(all))
	}

	matched, _ := ListItems(ctx, database, acme.ID, "XPS", "")
	if len(matched) != 1 || matched[0].ID != laptop.ID {
		t.Errorf("expected only the Acme XPS, got %+v", matched)
	}

	ChangeItemStatus(ctx, database, laptop.ID, model.StatusShipped, nil, "", "system", "Status changed Received → Shipped")
	shipped, _ := ListItems(ctx, database, acme.ID, "", model.StatusShipped)
	if len(shipped) != 1 {
		t.Errorf("expected 1 shipped item, got %d", len(shipped))
	}
}

func TestCountItemsByStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme := newTestCompany(t, database, "Acme")
	newTestItem(t, database, acme.ID, "A")
	newTestItem(t, database, acme.ID, "B")
	c := newTestItem(t, database, acme.ID, "C")
	ChangeItemStatus(ctx, database, c.ID, model.StatusReadyForSale, nil, "", "system", "Status changed Received → Ready for Sale")

	counts, err := CountItemsByStatus(ctx, database, acme.ID)
	if err != nil {
		t.Fatalf("CountItemsByStatus: %v", err)
	}
	if counts[model.StatusReceived] != 2 {
		t.Errorf("expected 2 received, got %d", counts[model.StatusReceived])
	}
	if counts[model.StatusReadyForSale] != 1 {
		t.Errorf("expected 1 ready for sale, got %d", counts[model.StatusReadyForSale])
	}
	if counts[model.StatusSold] != 0 {
		t.Errorf("expected 0 sold, got %d", counts[model.StatusSold])
	}
	if len(counts) != len(model.Statuses) {
		t.Errorf("expected a count for every status, got %d", len(counts))
	}
}

func TestListShippedBeforeAndBatchDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme := newTestCompany(t, database, "Acme")
	old := newTestItem(t, database, acme.ID, "Old Shipped")
	fresh := newTestItem(t, database, acme.ID, "Fresh Shipped")

	for _, item := range []*model.Item{old, fresh} {
		ChangeItemStatus(ctx, database, item.ID, model.StatusShipped, nil, "", "system", "Status changed Received → Shipped")
	}

	// Backdate the old item's last update.
	_, err := database.ExecContext(ctx,
		`UPDATE items SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-40*24*time.Hour), old.ID,
	)
	if err != nil {
		t.Fatalf("backdating item: %v", err)
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	eligible, err := ListShippedBefore(ctx, database, cutoff)
	if err != nil {
		t.Fatalf("ListShippedBefore: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != old.ID {
		t.Fatalf("expected only the backdated item, got %+v", eligible)
	}

	if err := DeleteItems(ctx, database, []string{old.ID}); err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}

	remaining, _ := ListItems(ctx, database, acme.ID, "", "")
	if len(remaining) != 1 || remaining[0].ID != fresh.ID {
		t.Errorf("expected only the fresh item to remain, got %+v", remaining)
	}
}

func TestListUpcomingShipments(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme := newTestCompany(t, database, "Acme")
	soon := newTestItem(t, database, acme.ID, "Soon")
	later := newTestItem(t, database, acme.ID, "Later")
	newTestItem(t, database, acme.ID, "No Date")

	today := time.Now().UTC().Truncate(24 * time.Hour)
	soonDate := today.Add(2 * 24 * time.Hour)
	laterDate := today.Add(9 * 24 * time.Hour)
	ChangeItemStatus(ctx, database, soon.ID, model.StatusSold, &soonDate, "addr", "system", "Status changed Received → Sold")
	ChangeItemStatus(ctx, database, later.ID, model.StatusSold, &laterDate, "addr", "system", "Status changed Received → Sold")

	upcoming, err := ListUpcomingShipments(ctx, database, acme.ID, today, 10)
	if err != nil {
		t.Fatalf("ListUpcomingShipments: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("expected 2 upcoming shipments, got %d", len(upcoming))
	}
	if upcoming[0].ID != soon.ID {
		t.Errorf("expected soonest shipment first, got %q", upcoming[0].Model)
	}
}

func TestSetItemPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	acme := newTestCompany(t, database, "Acme")
	item := newTestItem(t, database, acme.ID, "Camera")

	if err := SetItemPhoto(ctx, database, item.ID, "20250101000000_front.jpg", "sam"); err != nil {
		t.Fatalf("SetItemPhoto: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.PhotoFilename != "20250101000000_front.jpg" {
		t.Errorf("expected photo reference, got %q", got.PhotoFilename)
	}

	// The attachment leaves a history trace alongside the creation entry.
	logs, err := ListLogs(ctx, database, item.ID, 50)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].Action != "Photo updated" || logs[0].Actor != "sam" {
		t.Errorf("expected 'Photo updated' by sam, got %q by %q", logs[0].Action, logs[0].Actor)
	}
}
