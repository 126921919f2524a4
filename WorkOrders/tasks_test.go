package WorkOrders

import (
	"errors"
	"testing"

	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

func TestTaskDrivenPercentage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	company := seedCompany(t, db, "Injaz")
	order := mustCreateOrder(t, svc, company.ID, CreateInput{Title: "Quarterly pump maintenance"})

	percentage := func() int {
		t.Helper()
		reloaded, err := svc.GetByID(company.ID, order.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		return reloaded.CompletionPercentage
	}

	var tasks []*Models.WorkOrderTask
	for _, description := range []string{"Drain system", "Swap impeller", "Refill and bleed"} {
		task, err := svc.AddTask(company.ID, order.ID, description)
		if err != nil {
			t.Fatalf("add task: %v", err)
		}
		tasks = append(tasks, task)
	}
	if got := percentage(); got != 0 {
		t.Fatalf("all tasks pending, percentage = %d, want 0", got)
	}

	if _, err := svc.UpdateTaskStatus(company.ID, tasks[0].ID, true); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if got := percentage(); got != 33 {
		t.Fatalf("1 of 3 done, percentage = %d, want 33", got)
	}

	if _, err := svc.UpdateTaskStatus(company.ID, tasks[1].ID, true); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if got := percentage(); got != 66 {
		t.Fatalf("2 of 3 done, percentage = %d, want 66", got)
	}

	if _, err := svc.UpdateTaskStatus(company.ID, tasks[2].ID, true); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if got := percentage(); got != 100 {
		t.Fatalf("3 of 3 done, percentage = %d, want 100", got)
	}

	// Task-driven progress never moves the lifecycle, even at 100.
	reloaded, err := svc.GetByID(company.ID, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != Models.StatusPending {
		t.Fatalf("task completion changed status to %s, want %s", reloaded.Status, Models.StatusPending)
	}

	// Reopening a task pulls the number back down.
	if _, err := svc.UpdateTaskStatus(company.ID, tasks[2].ID, false); err != nil {
		t.Fatalf("reopen task: %v", err)
	}
	if got := percentage(); got != 66 {
		t.Fatalf("after reopening, percentage = %d, want 66", got)
	}

	// A fresh pending task dilutes the ratio.
	if _, err := svc.AddTask(company.ID, order.ID, "Log readings"); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if got := percentage(); got != 50 {
		t.Fatalf("2 of 4 done, percentage = %d, want 50", got)
	}
}

func TestManualProgressYieldsToTaskLedger(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	company := seedCompany(t, db, "Jawda")
	order := mustCreateOrder(t, svc, company.ID, CreateInput{Title: "Fix playground fence"})

	// No tasks yet: the manual figure is authoritative.
	order, err := svc.UpdateProgress(company.ID, order.ID, 80)
	if err != nil {
		t.Fatalf("manual progress: %v", err)
	}
	if order.CompletionPercentage != 80 {
		t.Fatalf("manual percentage = %d, want 80", order.CompletionPercentage)
	}

	task, err := svc.AddTask(company.ID, order.ID, "Weld broken rail")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	reloaded, err := svc.GetByID(company.ID, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CompletionPercentage != 0 {
		t.Fatalf("once tasks exist the ledger rules: percentage = %d, want 0", reloaded.CompletionPercentage)
	}

	if _, err := svc.UpdateTaskStatus(company.ID, task.ID, true); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	reloaded, err = svc.GetByID(company.ID, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CompletionPercentage != 100 {
		t.Fatalf("1 of 1 done, percentage = %d, want 100", reloaded.CompletionPercentage)
	}
}

func TestTaskTenantScope(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	companyA := seedCompany(t, db, "Khalij")
	companyB := seedCompany(t, db, "Liwan")
	order := mustCreateOrder(t, svc, companyA.ID, CreateInput{Title: "Clean water tank"})
	task, err := svc.AddTask(companyA.ID, order.ID, "Drain tank")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	var notFound *NotFoundError
	if _, err := svc.UpdateTaskStatus(companyB.ID, task.ID, true); !errors.As(err, &notFound) {
		t.Fatalf("cross-tenant task update: error %v, want *NotFoundError", err)
	}
	if notFound.Resource != "task" {
		t.Fatalf("cross-tenant rejection names %q, must read as a missing task", notFound.Resource)
	}
}

func TestTaskOrderingPreserved(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	company := seedCompany(t, db, "Manar")
	order := mustCreateOrder(t, svc, company.ID, CreateInput{Title: "Annual elevator service"})

	steps := []string{"Lock out power", "Inspect cables", "Grease rails", "Test brakes"}
	for _, step := range steps {
		if _, err := svc.AddTask(company.ID, order.ID, step); err != nil {
			t.Fatalf("add task: %v", err)
		}
	}
	reloaded, err := svc.GetByID(company.ID, order.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Tasks) != len(steps) {
		t.Fatalf("preloaded %d tasks, want %d", len(reloaded.Tasks), len(steps))
	}
	for i, task := range reloaded.Tasks {
		if task.Description != steps[i] {
			t.Errorf("task %d = %q, want %q", i, task.Description, steps[i])
		}
		if task.ItemOrder != i+1 {
			t.Errorf("task %d order = %d, want %d", i, task.ItemOrder, i+1)
		}
	}
}
