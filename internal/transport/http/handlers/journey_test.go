package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"appraise/internal/app/server"
	"appraise/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Environment:        "test",
		SeedTenantName:     "Test Tenant",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func startApp(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts, cfg
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return res.StatusCode, env
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	status, env := call(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login as %s failed with status %d", email, status)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.Token == "" {
		t.Fatalf("login as %s returned no token: %v", email, err)
	}
	return payload.Token
}

func createUser(t *testing.T, ts *httptest.Server, adminToken, email, role, managerID string) string {
	t.Helper()
	status, env := call(t, ts, http.MethodPost, "/api/v1/users", adminToken, map[string]string{
		"email":     email,
		"password":  "Password123!",
		"firstName": "Journey",
		"lastName":  "User",
		"role":      role,
		"managerId": managerID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create user %s failed with status %d", email, status)
	}
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ID == "" {
		t.Fatalf("create user %s returned no id", email)
	}
	return payload.ID
}

func evaluationTemplateBody() map[string]any {
	return map[string]any{
		"name":          "Annual Review",
		"scoringSystem": "1-5",
		"categories": []map[string]any{
			{
				"name":   "Delivery",
				"weight": 60,
				"questions": []map[string]any{
					{"text": "Ships on schedule", "type": "dualRating", "weight": 50},
					{"text": "Quality of work", "type": "dualRating", "weight": 50},
				},
			},
			{
				"name":   "Collaboration",
				"weight": 40,
				"questions": []map[string]any{
					{"text": "Supports teammates", "type": "rating", "weight": 100},
				},
			},
		},
		"freeTextQuestions": []map[string]any{
			{"text": "What went well this year?"},
		},
	}
}

func TestEvaluationLifecycleJourney(t *testing.T) {
	ts, cfg := startApp(t)

	adminToken := login(t, ts, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	suffix := time.Now().UnixNano()

	managerEmail := fmt.Sprintf("manager-%d@example.com", suffix)
	employeeEmail := fmt.Sprintf("employee-%d@example.com", suffix)
	managerID := createUser(t, ts, adminToken, managerEmail, "manager", "")
	employeeID := createUser(t, ts, adminToken, employeeEmail, "employee", managerID)

	status, env := call(t, ts, http.MethodPost, "/api/v1/templates", adminToken, evaluationTemplateBody())
	if status != http.StatusCreated {
		t.Fatalf("create template failed with status %d", status)
	}
	var tplRef struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &tplRef); err != nil || tplRef.ID == "" {
		t.Fatal("create template returned no id")
	}

	managerToken := login(t, ts, managerEmail, "Password123!")
	employeeToken := login(t, ts, employeeEmail, "Password123!")

	// No assignment yet, creation must be refused.
	status, env = call(t, ts, http.MethodPost, "/api/v1/evaluations", managerToken, map[string]string{
		"templateId":  tplRef.ID,
		"evaluateeId": employeeID,
	})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "failed_precondition" {
		t.Fatalf("expected failed_precondition without assignment, got status %d", status)
	}

	status, env = call(t, ts, http.MethodPost, "/api/v1/assignments", adminToken, map[string]string{
		"type":        "evaluation",
		"evaluatorId": managerID,
		"evaluateeId": employeeID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create assignment failed with status %d", status)
	}

	status, env = call(t, ts, http.MethodPost, "/api/v1/assignments", adminToken, map[string]string{
		"type":        "evaluation",
		"evaluatorId": managerID,
		"evaluateeId": employeeID,
	})
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "already_exists" {
		t.Fatalf("expected duplicate active assignment conflict, got status %d", status)
	}

	status, env = call(t, ts, http.MethodPost, "/api/v1/evaluations", managerToken, map[string]string{
		"templateId":  tplRef.ID,
		"evaluateeId": employeeID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create evaluation failed with status %d", status)
	}
	var created struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Version  int64  `json:"version"`
		Template struct {
			Categories []struct {
				ID        string `json:"id"`
				Questions []struct {
					ID string `json:"id"`
				} `json:"questions"`
			} `json:"categories"`
			FreeTextQuestions []struct {
				ID string `json:"id"`
			} `json:"freeTextQuestions"`
		} `json:"template"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode evaluation: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("expected new evaluation in pending, got %s", created.Status)
	}
	catID := created.Template.Categories[0].ID
	q1 := created.Template.Categories[0].Questions[0].ID
	q2 := created.Template.Categories[0].Questions[1].ID
	cat2ID := created.Template.Categories[1].ID
	q3 := created.Template.Categories[1].Questions[0].ID
	freeID := created.Template.FreeTextQuestions[0].ID

	// Save progress is evaluatee only.
	status, _ = call(t, ts, http.MethodPut, "/api/v1/evaluations/"+created.ID+"/self", managerToken, map[string]any{
		"categoryResponses": map[string]any{},
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected evaluator to be blocked from the self-assessment, got %d", status)
	}

	status, env = call(t, ts, http.MethodPut, "/api/v1/evaluations/"+created.ID+"/self", employeeToken, map[string]any{
		"categoryResponses": map[string]any{
			catID: map[string]any{
				q1: map[string]any{"selfRating": 4, "comment": "solid year"},
			},
		},
		"version": created.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("self save failed with status %d", status)
	}
	var afterSave struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &afterSave); err != nil {
		t.Fatalf("decode self save: %v", err)
	}
	if afterSave.Status != "in_progress" {
		t.Fatalf("expected in_progress after save, got %s", afterSave.Status)
	}

	// Stale writes are rejected with a conflict.
	status, env = call(t, ts, http.MethodPut, "/api/v1/evaluations/"+created.ID+"/self", employeeToken, map[string]any{
		"categoryResponses": map[string]any{},
		"version":           created.Version,
	})
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "conflict" {
		t.Fatalf("expected stale version conflict, got status %d", status)
	}

	status, env = call(t, ts, http.MethodPost, "/api/v1/evaluations/"+created.ID+"/submit", employeeToken, map[string]any{
		"categoryResponses": map[string]any{
			catID: map[string]any{
				q1: map[string]any{"selfRating": 4, "comment": "solid year"},
				q2: map[string]any{"selfRating": 5},
			},
			cat2ID: map[string]any{
				q3: map[string]any{"selfRating": 3},
			},
		},
		"freeTextAnswers": map[string]string{freeID: "Shipped the migration"},
		"version":         afterSave.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("submit failed with status %d", status)
	}
	var afterSubmit struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &afterSubmit); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if afterSubmit.Status != "under_review" {
		t.Fatalf("expected under_review after submit, got %s", afterSubmit.Status)
	}

	// Once submitted, the evaluatee can no longer save.
	status, env = call(t, ts, http.MethodPut, "/api/v1/evaluations/"+created.ID+"/self", employeeToken, map[string]any{
		"categoryResponses": map[string]any{},
		"version":           afterSubmit.Version,
	})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "failed_precondition" {
		t.Fatalf("expected failed_precondition for save after submit, got status %d", status)
	}

	status, env = call(t, ts, http.MethodPut, "/api/v1/evaluations/"+created.ID+"/review", managerToken, map[string]any{
		"categoryResponses": map[string]any{
			catID: map[string]any{
				q1: map[string]any{"managerRating": 4, "managerComment": "dependable"},
				q2: map[string]any{"managerRating": 3},
			},
		},
		"targets": map[string]any{
			catID: map[string]any{"target": "Lead the next rollout"},
		},
		"version": afterSubmit.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("review save failed with status %d", status)
	}
	var afterReview struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &afterReview); err != nil {
		t.Fatalf("decode review save: %v", err)
	}
	if afterReview.Status != "under_review" {
		t.Fatalf("expected under_review after review save, got %s", afterReview.Status)
	}

	status, env = call(t, ts, http.MethodPost, "/api/v1/evaluations/"+created.ID+"/complete", managerToken, map[string]any{
		"categoryResponses": map[string]any{
			cat2ID: map[string]any{
				q3: map[string]any{"managerRating": 5},
			},
		},
		"overallComments": "Strong year overall",
		"version":         afterReview.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("complete failed with status %d", status)
	}
	var completed struct {
		Status string `json:"status"`
		Review struct {
			OverallRating float64 `json:"overallRating"`
		} `json:"managerReview"`
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &completed); err != nil {
		t.Fatalf("decode complete: %v", err)
	}
	if completed.Status != "completed" {
		t.Fatalf("expected completed status, got %s", completed.Status)
	}
	// Ratings 4, 3 and 5 average to 4 on the half-point scale.
	if completed.Review.OverallRating != 4 {
		t.Fatalf("expected overall rating 4, got %v", completed.Review.OverallRating)
	}

	// Completed evaluations are read-only.
	status, env = call(t, ts, http.MethodPut, "/api/v1/evaluations/"+created.ID+"/review", managerToken, map[string]any{
		"overallComments": "late edit",
		"version":         completed.Version,
	})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "failed_precondition" {
		t.Fatalf("expected completed evaluation to be read-only, got status %d", status)
	}

	// The evaluatee was notified about the completed review.
	status, env = call(t, ts, http.MethodGet, "/api/v1/notifications", employeeToken, nil)
	if status != http.StatusOK {
		t.Fatalf("notification list failed with status %d", status)
	}
	var notes []map[string]any
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	found := false
	for _, n := range notes {
		if n["type"] == "review_completed" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a review_completed notification for the evaluatee")
	}
}

func TestEmployeeSeesOnlyOwnEvaluations(t *testing.T) {
	ts, cfg := startApp(t)

	adminToken := login(t, ts, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	suffix := time.Now().UnixNano()

	managerEmail := fmt.Sprintf("scope-manager-%d@example.com", suffix)
	aEmail := fmt.Sprintf("scope-a-%d@example.com", suffix)
	bEmail := fmt.Sprintf("scope-b-%d@example.com", suffix)
	managerID := createUser(t, ts, adminToken, managerEmail, "manager", "")
	aID := createUser(t, ts, adminToken, aEmail, "employee", managerID)
	bID := createUser(t, ts, adminToken, bEmail, "employee", managerID)

	status, env := call(t, ts, http.MethodPost, "/api/v1/templates", adminToken, evaluationTemplateBody())
	if status != http.StatusCreated {
		t.Fatalf("create template failed with status %d", status)
	}
	var tplRef struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &tplRef); err != nil {
		t.Fatalf("decode template: %v", err)
	}

	for _, evaluatee := range []string{aID, bID} {
		status, _ = call(t, ts, http.MethodPost, "/api/v1/assignments", adminToken, map[string]string{
			"type":        "evaluation",
			"evaluatorId": managerID,
			"evaluateeId": evaluatee,
		})
		if status != http.StatusCreated {
			t.Fatalf("create assignment failed with status %d", status)
		}
		status, _ = call(t, ts, http.MethodPost, "/api/v1/evaluations", adminToken, map[string]string{
			"templateId":  tplRef.ID,
			"evaluatorId": managerID,
			"evaluateeId": evaluatee,
		})
		if status != http.StatusCreated {
			t.Fatalf("create evaluation failed with status %d", status)
		}
	}

	aToken := login(t, ts, aEmail, "Password123!")
	status, env = call(t, ts, http.MethodGet, "/api/v1/evaluations", aToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list evaluations failed with status %d", status)
	}
	var evaluations []struct {
		EvaluateeID string `json:"evaluateeId"`
		EvaluatorID string `json:"evaluatorId"`
	}
	if err := json.Unmarshal(env.Data, &evaluations); err != nil {
		t.Fatalf("decode evaluations: %v", err)
	}
	if len(evaluations) == 0 {
		t.Fatal("expected employee to see their own evaluation")
	}
	for _, e := range evaluations {
		if e.EvaluateeID != aID && e.EvaluatorID != aID {
			t.Fatalf("employee saw an evaluation they are not part of: %+v", e)
		}
	}
}

func TestManagerScopeOnListsAndReads(t *testing.T) {
	ts, cfg := startApp(t)

	adminToken := login(t, ts, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	suffix := time.Now().UnixNano()

	lineManagerEmail := fmt.Sprintf("line-manager-%d@example.com", suffix)
	evaluatorEmail := fmt.Sprintf("evaluator-%d@example.com", suffix)
	outsiderEmail := fmt.Sprintf("outsider-%d@example.com", suffix)
	reportEmail := fmt.Sprintf("report-%d@example.com", suffix)

	lineManagerID := createUser(t, ts, adminToken, lineManagerEmail, "manager", "")
	evaluatorID := createUser(t, ts, adminToken, evaluatorEmail, "manager", "")
	createUser(t, ts, adminToken, outsiderEmail, "manager", "")
	reportID := createUser(t, ts, adminToken, reportEmail, "employee", lineManagerID)

	status, env := call(t, ts, http.MethodPost, "/api/v1/templates", adminToken, evaluationTemplateBody())
	if status != http.StatusCreated {
		t.Fatalf("create template failed with status %d", status)
	}
	var tplRef struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &tplRef); err != nil {
		t.Fatalf("decode template: %v", err)
	}

	status, _ = call(t, ts, http.MethodPost, "/api/v1/assignments", adminToken, map[string]string{
		"type":        "evaluation",
		"evaluatorId": evaluatorID,
		"evaluateeId": reportID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create assignment failed with status %d", status)
	}

	status, env = call(t, ts, http.MethodPost, "/api/v1/evaluations", adminToken, map[string]string{
		"templateId":  tplRef.ID,
		"evaluatorId": evaluatorID,
		"evaluateeId": reportID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create evaluation failed with status %d", status)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode evaluation: %v", err)
	}

	listIDs := func(token, path string) []string {
		t.Helper()
		status, env := call(t, ts, http.MethodGet, path, token, nil)
		if status != http.StatusOK {
			t.Fatalf("GET %s failed with status %d", path, status)
		}
		var rows []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return ids
	}
	contains := func(ids []string, want string) bool {
		for _, id := range ids {
			if id == want {
				return true
			}
		}
		return false
	}

	// A manager who is neither party nor the evaluatee's manager must not be
	// able to widen their view with query filters.
	outsiderToken := login(t, ts, outsiderEmail, "Password123!")
	if ids := listIDs(outsiderToken, "/api/v1/evaluations?evaluateeId="+reportID); contains(ids, created.ID) {
		t.Fatal("unrelated manager listed another employee's evaluation")
	}
	if ids := listIDs(outsiderToken, "/api/v1/assignments?evaluateeId="+reportID); len(ids) != 0 {
		t.Fatal("unrelated manager listed another employee's assignments")
	}
	status, _ = call(t, ts, http.MethodGet, "/api/v1/evaluations/"+created.ID, outsiderToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("unrelated manager read an evaluation, status %d", status)
	}

	// The evaluatee's line manager sees the evaluation even without being the
	// evaluator.
	lineManagerToken := login(t, ts, lineManagerEmail, "Password123!")
	if ids := listIDs(lineManagerToken, "/api/v1/evaluations"); !contains(ids, created.ID) {
		t.Fatal("line manager missing a direct report's evaluation")
	}
	status, _ = call(t, ts, http.MethodGet, "/api/v1/evaluations/"+created.ID, lineManagerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("line manager blocked from a direct report's evaluation, status %d", status)
	}

	// The evaluator sees it as a party.
	evaluatorToken := login(t, ts, evaluatorEmail, "Password123!")
	if ids := listIDs(evaluatorToken, "/api/v1/evaluations"); !contains(ids, created.ID) {
		t.Fatal("evaluator missing their own evaluation")
	}
}
