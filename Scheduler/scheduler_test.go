package Scheduler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
	"github.com/OmarEhab007/cafm-backend-sub004/WorkOrders"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := Models.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, name string) *Models.Company {
	t.Helper()
	company := &Models.Company{Name: name, Subdomain: strings.ToLower(name), Active: true}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return company
}

func seedTechnician(t *testing.T, db *gorm.DB, companyID uint, name string) *Models.User {
	t.Helper()
	user := &Models.User{
		CompanyID:   companyID,
		Name:        name,
		Email:       strings.ToLower(name) + "@example.com",
		Role:        Models.RoleTechnician,
		Permission:  Models.PermissionTechnician,
		HourlyRate:  45,
		IsAvailable: true,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed technician %s: %v", name, err)
	}
	return user
}

func seedPending(t *testing.T, svc *WorkOrders.Service, companyID uint, title, priority string) *Models.WorkOrder {
	t.Helper()
	order, err := svc.Create(companyID, WorkOrders.CreateInput{Title: title, Priority: priority})
	if err != nil {
		t.Fatalf("seed pending order %q: %v", title, err)
	}
	return order
}

func TestRoundRobinFairness(t *testing.T) {
	db := setupTestDB(t)
	svc := WorkOrders.NewService(db)
	company := seedCompany(t, db, "Rawafed")
	for _, name := range []string{"Adel", "Basim", "Chadi"} {
		seedTechnician(t, db, company.ID, name)
	}
	const backlog = 7
	for i := 0; i < backlog; i++ {
		seedPending(t, svc, company.ID, fmt.Sprintf("Job %d", i+1), Models.PriorityMedium)
	}

	report, err := New(svc).Run(company.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Assigned) != backlog {
		t.Fatalf("assigned %d orders, want %d", len(report.Assigned), backlog)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	perTechnician := map[uint]int{}
	for _, assignment := range report.Assigned {
		perTechnician[assignment.TechnicianID]++
	}
	if len(perTechnician) != 3 {
		t.Fatalf("work spread across %d technicians, want 3", len(perTechnician))
	}
	// 7 orders over 3 technicians: everybody gets 2 or 3.
	for technicianID, count := range perTechnician {
		if count < 2 || count > 3 {
			t.Errorf("technician %d got %d orders, want 2 or 3", technicianID, count)
		}
	}

	var stillPending int64
	db.Model(&Models.WorkOrder{}).
		Where("company_id = ? AND status = ?", company.ID, Models.StatusPending).
		Count(&stillPending)
	if stillPending != 0 {
		t.Fatalf("%d orders left pending after a full run", stillPending)
	}
}

func TestEmergencyScheduledFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := WorkOrders.NewService(db)
	company := seedCompany(t, db, "Safwa")
	seedTechnician(t, db, company.ID, "Dawood")

	low := seedPending(t, svc, company.ID, "Repaint parking lines", Models.PriorityLow)
	emergency := seedPending(t, svc, company.ID, "Gas smell in kitchen", Models.PriorityEmergency)

	report, err := New(svc).Run(company.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Assigned) != 2 {
		t.Fatalf("assigned %d orders, want 2", len(report.Assigned))
	}
	if report.Assigned[0].WorkOrderID != emergency.ID {
		t.Fatalf("first slot went to order %d, want the emergency %d", report.Assigned[0].WorkOrderID, emergency.ID)
	}
	if report.Assigned[1].WorkOrderID != low.ID {
		t.Fatalf("second slot went to order %d, want %d", report.Assigned[1].WorkOrderID, low.ID)
	}
	if !report.Assigned[0].ScheduledStart.Before(report.Assigned[1].ScheduledStart) {
		t.Fatal("the emergency must get the earlier slot")
	}
}

func TestTechnicianCalendarDoesNotOverlap(t *testing.T) {
	db := setupTestDB(t)
	svc := WorkOrders.NewService(db)
	company := seedCompany(t, db, "Tamayuz")
	seedTechnician(t, db, company.ID, "Emad")
	for i := 0; i < 4; i++ {
		seedPending(t, svc, company.ID, fmt.Sprintf("Visit %d", i+1), Models.PriorityMedium)
	}

	report, err := New(svc).Run(company.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Assigned) != 4 {
		t.Fatalf("assigned %d orders, want 4", len(report.Assigned))
	}
	for i, assignment := range report.Assigned {
		if !assignment.ScheduledEnd.After(assignment.ScheduledStart) {
			t.Errorf("assignment %d has a non-positive window", i)
		}
		if hour := assignment.ScheduledStart.Hour(); hour < DayStartHour || hour >= DayEndHour {
			t.Errorf("assignment %d starts at hour %d, outside the working day", i, hour)
		}
		if weekday := assignment.ScheduledStart.Weekday(); weekday == 0 || weekday == 6 {
			t.Errorf("assignment %d starts on a weekend", i)
		}
		if i > 0 && assignment.ScheduledStart.Before(report.Assigned[i-1].ScheduledEnd) {
			t.Errorf("assignment %d starts before the previous visit ends", i)
		}
	}
}

func TestRerunIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := WorkOrders.NewService(db)
	company := seedCompany(t, db, "Umran")
	seedTechnician(t, db, company.ID, "Faris")
	seedTechnician(t, db, company.ID, "Ghaith")
	for i := 0; i < 5; i++ {
		seedPending(t, svc, company.ID, fmt.Sprintf("Round %d", i+1), Models.PriorityMedium)
	}
	scheduler := New(svc)

	first, err := scheduler.Run(company.ID)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Assigned) != 5 {
		t.Fatalf("first run assigned %d, want 5", len(first.Assigned))
	}

	assignments := map[uint]uint{}
	for _, a := range first.Assigned {
		assignments[a.WorkOrderID] = a.TechnicianID
	}

	second, err := scheduler.Run(company.ID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Assigned) != 0 || len(second.Failures) != 0 {
		t.Fatalf("second run touched work: %d assigned, %d failures", len(second.Assigned), len(second.Failures))
	}

	var orders []Models.WorkOrder
	db.Where("company_id = ?", company.ID).Find(&orders)
	for _, order := range orders {
		if order.Status != Models.StatusAssigned {
			t.Errorf("order %d status = %s after rerun, want %s", order.ID, order.Status, Models.StatusAssigned)
		}
		if order.TechnicianID == nil || *order.TechnicianID != assignments[order.ID] {
			t.Errorf("order %d changed hands on the second run", order.ID)
		}
	}
}

func TestNoCapacityAbortsUntouched(t *testing.T) {
	db := setupTestDB(t)
	svc := WorkOrders.NewService(db)
	company := seedCompany(t, db, "Wissam")
	sidelined := seedTechnician(t, db, company.ID, "Hani")
	db.Model(sidelined).Update("is_available", false)
	for i := 0; i < 3; i++ {
		seedPending(t, svc, company.ID, fmt.Sprintf("Stalled %d", i+1), Models.PriorityHigh)
	}

	_, err := New(svc).Run(company.ID)
	if !errors.Is(err, WorkOrders.ErrNoCapacityAvailable) {
		t.Fatalf("run with empty pool: error %v, want ErrNoCapacityAvailable", err)
	}

	var orders []Models.WorkOrder
	db.Where("company_id = ?", company.ID).Find(&orders)
	for _, order := range orders {
		if order.Status != Models.StatusPending || order.TechnicianID != nil || order.ScheduledStart != nil {
			t.Errorf("order %d was touched by an aborted run", order.ID)
		}
	}
}
