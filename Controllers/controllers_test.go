package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/OmarEhab007/cafm-backend-sub004/FiberConfig"
	"github.com/OmarEhab007/cafm-backend-sub004/Models"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := Models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// The auth middleware reads the package-level handle
	Models.DB = db

	app := fiber.New()
	FiberConfig.SetupRoutes(app, db)
	return app, db
}

func seedCompany(t *testing.T, db *gorm.DB, name string) *Models.Company {
	t.Helper()
	company := &Models.Company{Name: name, Subdomain: strings.ToLower(name)}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return company
}

func seedUser(t *testing.T, db *gorm.DB, companyID uint, name, email, role string) *Models.User {
	t.Helper()
	password, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &Models.User{
		CompanyID:   companyID,
		Name:        name,
		Email:       email,
		Password:    password,
		Role:        role,
		Permission:  Models.PermissionForRole(role),
		HourlyRate:  50,
		IsAvailable: true,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// login posts the credentials and returns the jwt cookie value.
func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, email)
	req := httptest.NewRequest(http.MethodPost, "/api/Login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("login returned %d: %s", resp.StatusCode, payload)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "jwt" {
			return cookie.Value
		}
	}
	t.Fatal("login response carried no jwt cookie")
	return ""
}

func doJSON(t *testing.T, app *fiber.App, method, target, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decodeOrder(t *testing.T, resp *http.Response) Models.WorkOrder {
	t.Helper()
	var order Models.WorkOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("decode work order: %v", err)
	}
	return order
}

func TestAuthGate(t *testing.T) {
	app, db := newTestApp(t)
	company := seedCompany(t, db, "Gatehouse")
	seedUser(t, db, company.ID, "Admin", "admin@gatehouse.test", Models.RoleAdmin)

	resp := doJSON(t, app, http.MethodGet, "/api/workorders", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list returned %d, want 401", resp.StatusCode)
	}

	token := login(t, app, "admin@gatehouse.test")
	resp = doJSON(t, app, http.MethodGet, "/api/workorders", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated list returned %d, want 200", resp.StatusCode)
	}

	// A garbage token is rejected, not treated as anonymous
	resp = doJSON(t, app, http.MethodGet, "/api/workorders", "not-a-token", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token returned %d, want 401", resp.StatusCode)
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	company := seedCompany(t, db, "Lifecycle")
	seedUser(t, db, company.ID, "Admin", "admin@lifecycle.test", Models.RoleAdmin)
	technician := seedUser(t, db, company.ID, "Tech", "tech@lifecycle.test", Models.RoleTechnician)
	token := login(t, app, "admin@lifecycle.test")

	resp := doJSON(t, app, http.MethodPost, "/api/workorders", token,
		`{"title":"Replace AC filters","priority":"HIGH","estimated_hours":2}`)
	if resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("create returned %d: %s", resp.StatusCode, payload)
	}
	order := decodeOrder(t, resp)
	if order.Status != Models.StatusPending {
		t.Fatalf("created order status = %s, want PENDING", order.Status)
	}
	if order.WorkOrderNumber == "" {
		t.Fatal("created order has no number")
	}

	base := fmt.Sprintf("/api/workorders/%d", order.ID)

	resp = doJSON(t, app, http.MethodPatch, base+"/assign", token,
		fmt.Sprintf(`{"technician_id":%d}`, technician.ID))
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("assign returned %d: %s", resp.StatusCode, payload)
	}
	order = decodeOrder(t, resp)
	if order.Status != Models.StatusAssigned {
		t.Fatalf("after assign status = %s, want ASSIGNED", order.Status)
	}

	resp = doJSON(t, app, http.MethodPatch, base+"/start", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start returned %d", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, base+"/tasks", token, `{"description":"Swap filter bank A"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add task returned %d", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPatch, base+"/complete", token,
		`{"actual_hours":3,"completion_notes":"done"}`)
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("complete returned %d: %s", resp.StatusCode, payload)
	}
	order = decodeOrder(t, resp)
	if order.Status != Models.StatusCompleted {
		t.Fatalf("after complete status = %s, want COMPLETED", order.Status)
	}
	if order.LaborCost != 150 {
		t.Fatalf("labor cost = %v, want 150 (3h at rate 50)", order.LaborCost)
	}

	resp = doJSON(t, app, http.MethodPatch, base+"/verify", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify returned %d", resp.StatusCode)
	}
	order = decodeOrder(t, resp)
	if order.Status != Models.StatusVerified {
		t.Fatalf("after verify status = %s, want VERIFIED", order.Status)
	}

	// Terminal orders reject further lifecycle calls with 409
	resp = doJSON(t, app, http.MethodPatch, base+"/cancel", token, `{"reason":"too late"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("cancel after verify returned %d, want 409", resp.StatusCode)
	}
}

func TestPermissionLadder(t *testing.T) {
	app, db := newTestApp(t)
	company := seedCompany(t, db, "Ladder")
	seedUser(t, db, company.ID, "Admin", "admin@ladder.test", Models.RoleAdmin)
	technician := seedUser(t, db, company.ID, "Tech", "tech@ladder.test", Models.RoleTechnician)

	adminToken := login(t, app, "admin@ladder.test")
	techToken := login(t, app, "tech@ladder.test")

	// Technicians cannot open work orders
	resp := doJSON(t, app, http.MethodPost, "/api/workorders", techToken,
		`{"title":"Not allowed"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician create returned %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/workorders", adminToken,
		`{"title":"Paint hallway"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin create returned %d, want 201", resp.StatusCode)
	}
	order := decodeOrder(t, resp)
	base := fmt.Sprintf("/api/workorders/%d", order.ID)

	doJSON(t, app, http.MethodPatch, base+"/assign", adminToken,
		fmt.Sprintf(`{"technician_id":%d}`, technician.ID))

	// The technician may run the job but not sign it off
	resp = doJSON(t, app, http.MethodPatch, base+"/start", techToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("technician start returned %d, want 200", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPatch, base+"/progress", techToken, `{"percentage":100}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("technician progress returned %d, want 200", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPatch, base+"/verify", techToken, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician verify returned %d, want 403", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPatch, base+"/verify", adminToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin verify returned %d, want 200", resp.StatusCode)
	}
}

func TestErrorTranslation(t *testing.T) {
	app, db := newTestApp(t)
	company := seedCompany(t, db, "Errors")
	seedUser(t, db, company.ID, "Admin", "admin@errors.test", Models.RoleAdmin)
	token := login(t, app, "admin@errors.test")

	resp := doJSON(t, app, http.MethodGet, "/api/workorders/424242", token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing order returned %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/workorders", token, `{"title":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank title returned %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/workorders", token,
		`{"title":"Bad priority","priority":"URGENT"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown priority returned %d, want 400", resp.StatusCode)
	}

	// Assigning someone who is not a technician is a 400, not a 404
	supervisor := seedUser(t, db, company.ID, "Super", "super@errors.test", Models.RoleSupervisor)
	resp = doJSON(t, app, http.MethodPost, "/api/workorders", token, `{"title":"Fix door"}`)
	order := decodeOrder(t, resp)
	base := fmt.Sprintf("/api/workorders/%d", order.ID)

	resp = doJSON(t, app, http.MethodPatch, base+"/assign", token,
		fmt.Sprintf(`{"technician_id":%d}`, supervisor.ID))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("assign supervisor returned %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPatch, base+"/assign", token, `{"technician_id":999999}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("assign unknown technician returned %d, want 404", resp.StatusCode)
	}
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	alpha := seedCompany(t, db, "Alpha")
	beta := seedCompany(t, db, "Beta")
	seedUser(t, db, alpha.ID, "Alpha Admin", "admin@alpha.test", Models.RoleAdmin)
	seedUser(t, db, beta.ID, "Beta Admin", "admin@beta.test", Models.RoleAdmin)

	alphaToken := login(t, app, "admin@alpha.test")
	betaToken := login(t, app, "admin@beta.test")

	resp := doJSON(t, app, http.MethodPost, "/api/workorders", alphaToken,
		`{"title":"Alpha only"}`)
	order := decodeOrder(t, resp)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/workorders/%d", order.ID), betaToken, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant read returned %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/workorders/%d/cancel", order.ID),
		betaToken, `{"reason":"not yours"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant cancel returned %d, want 404", resp.StatusCode)
	}
}

func TestAutoScheduleEndpoint(t *testing.T) {
	app, db := newTestApp(t)
	company := seedCompany(t, db, "Dispatch")
	seedUser(t, db, company.ID, "Admin", "admin@dispatch.test", Models.RoleAdmin)
	seedUser(t, db, company.ID, "Tech", "tech@dispatch.test", Models.RoleTechnician)
	token := login(t, app, "admin@dispatch.test")

	for i := 0; i < 3; i++ {
		resp := doJSON(t, app, http.MethodPost, "/api/workorders", token,
			fmt.Sprintf(`{"title":"Backlog %d","estimated_hours":1}`, i))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed create returned %d", resp.StatusCode)
		}
	}

	resp := doJSON(t, app, http.MethodPost, "/api/workorders/auto-schedule", token, "")
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("auto-schedule returned %d: %s", resp.StatusCode, payload)
	}

	var report struct {
		Assigned []struct {
			WorkOrderID  uint `json:"work_order_id"`
			TechnicianID uint `json:"technician_id"`
		} `json:"assigned"`
		Failures []struct {
			Reason string `json:"reason"`
		} `json:"failures"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Assigned) != 3 {
		t.Fatalf("assigned %d orders, want 3", len(report.Assigned))
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	// With nobody available the run aborts before touching anything
	db.Model(&Models.User{}).Where("email = ?", "tech@dispatch.test").
		Update("is_available", false)
	resp = doJSON(t, app, http.MethodPost, "/api/workorders", token, `{"title":"Stranded"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed create returned %d", resp.StatusCode)
	}
	resp = doJSON(t, app, http.MethodPost, "/api/workorders/auto-schedule", token, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("auto-schedule without capacity returned %d, want 409", resp.StatusCode)
	}
}
