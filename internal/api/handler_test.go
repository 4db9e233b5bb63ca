package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/crisis-alerts/internal/alerting"
	"github.com/mr1hm/crisis-alerts/internal/models"
	"github.com/mr1hm/crisis-alerts/internal/repository"
	"github.com/mr1hm/crisis-alerts/internal/sms"
)

type testEnv struct {
	router *gin.Engine
	svc    *alerting.Service
	sms    *sms.Service
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := alerting.NewService(db, nil, nil)
	smsService := sms.NewService(0)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(svc, smsService)
	handler.RegisterRoutes(router)

	return &testEnv{router: router, svc: svc, sms: smsService}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestSubscribe_ReturnsReceipt(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/subscribers", map[string]string{"phoneNumber": "+1234567890", "area": "Downtown"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var receipt models.SubscriptionReceipt
	if err := json.Unmarshal(w.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !receipt.Success || receipt.PhoneNumber != "+1234567890" || receipt.Area != "Downtown" || !receipt.IsTest {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	w = env.do("GET", "/api/subscribers", nil)
	var subs []models.Subscriber
	json.Unmarshal(w.Body.Bytes(), &subs)
	if len(subs) != 1 || subs[0].Area != "Downtown" {
		t.Errorf("expected stored subscriber, got %+v", subs)
	}
}

func TestSubscribe_InvalidPhone(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/subscribers", map[string]string{"phoneNumber": "+0123"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["field"] != "phoneNumber" {
		t.Errorf("expected field phoneNumber, got %q", resp["field"])
	}

	w = env.do("GET", "/api/subscribers", nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected no subscribers, got %s", w.Body.String())
	}
}

func TestUnsubscribe_RemovesAllMatches(t *testing.T) {
	env := setupTestRouter(t)

	env.do("POST", "/api/subscribers", map[string]string{"phoneNumber": "+1234567890", "area": "Downtown"})
	env.do("POST", "/api/subscribers", map[string]string{"phoneNumber": "+1234567890", "area": "East End"})
	env.do("POST", "/api/subscribers", map[string]string{"phoneNumber": "+1987654321"})

	w := env.do("DELETE", "/api/subscribers/+1234567890", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var res models.UnsubscribeResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.PhoneNumber != "+1234567890" {
		t.Errorf("expected phone echoed back, got %q", res.PhoneNumber)
	}

	w = env.do("GET", "/api/subscribers", nil)
	var subs []models.Subscriber
	json.Unmarshal(w.Body.Bytes(), &subs)
	if len(subs) != 1 || subs[0].PhoneNumber != "+1987654321" {
		t.Errorf("unexpected remaining subscribers: %+v", subs)
	}

	// Unknown numbers still succeed
	w = env.do("DELETE", "/api/subscribers/+1555000000", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected idempotent delete to return 200, got %d", w.Code)
	}
}

func TestSendAlert_FixedRecipients(t *testing.T) {
	env := setupTestRouter(t)

	env.do("POST", "/api/subscribers", map[string]string{"phoneNumber": "+1234567890", "area": "Downtown"})

	w := env.do("POST", "/api/alerts", map[string]string{
		"description": "Flood warning",
		"location":    "Downtown",
		"severity":    "high",
		"type":        "emergency",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var receipt models.Receipt
	if err := json.Unmarshal(w.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !receipt.Success || receipt.MessageID == "" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}
	if len(receipt.Recipients) != 3 {
		t.Fatalf("expected 3 recipients, got %d", len(receipt.Recipients))
	}
	for _, r := range receipt.Recipients {
		if r.Status != "delivered" {
			t.Errorf("expected delivered, got %s", r.Status)
		}
	}

	w = env.do("GET", "/api/alerts", nil)
	var alerts []models.Alert
	json.Unmarshal(w.Body.Bytes(), &alerts)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Status != "sent" || alerts[0].Title != "Emergency Alert" {
		t.Errorf("unexpected stored alert: %+v", alerts[0])
	}
}

func TestSendAlert_FromTemplate(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/alerts", map[string]any{
		"templateId": 4,
		"location":   "East End",
		"variables":  map[string]string{"reason": "flooding"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	alerts, _ := env.svc.Alerts.List(context.Background())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	want := "Road closure in East End due to flooding. Please use alternative routes."
	if alerts[0].Description != want {
		t.Errorf("expected %q, got %q", want, alerts[0].Description)
	}
	if alerts[0].Severity != models.AlertSeverityMedium {
		t.Errorf("expected template severity, got %s", alerts[0].Severity)
	}
}

func TestSendAlert_BadRequests(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"missing location", map[string]any{"description": "x"}, http.StatusBadRequest},
		{"missing description", map[string]any{"location": "Downtown"}, http.StatusBadRequest},
		{"unknown template", map[string]any{"location": "Downtown", "templateId": 99}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/alerts", tt.body)
			if w.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, w.Code)
			}
		})
	}

	alerts, _ := env.svc.Alerts.List(context.Background())
	if len(alerts) != 0 {
		t.Errorf("expected no alerts stored, got %d", len(alerts))
	}
}

func TestTemplatesAndAreas(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/templates", nil)
	var tmpls []map[string]any
	json.Unmarshal(w.Body.Bytes(), &tmpls)
	if len(tmpls) != 5 {
		t.Errorf("expected 5 templates, got %d", len(tmpls))
	}

	w = env.do("POST", "/api/templates/1/render", map[string]string{"area": "River District"})
	var rendered map[string]any
	json.Unmarshal(w.Body.Bytes(), &rendered)
	if !strings.HasPrefix(rendered["message"].(string), "Severe weather warning for River District.") {
		t.Errorf("unexpected rendered message: %v", rendered["message"])
	}

	w = env.do("POST", "/api/templates/abc/render", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad id, got %d", w.Code)
	}

	w = env.do("GET", "/api/areas", nil)
	var areas []string
	json.Unmarshal(w.Body.Bytes(), &areas)
	if len(areas) != 9 || areas[0] != "Downtown Area" {
		t.Errorf("unexpected areas: %v", areas)
	}
}

func TestSMS_SendHistoryStatus(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/api/sms", map[string]string{"phoneNumber": "+1234567890", "message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var msg models.SMSMessage
	json.Unmarshal(w.Body.Bytes(), &msg)
	if !strings.HasPrefix(msg.MessageID, "mock-") {
		t.Errorf("expected mock- id, got %q", msg.MessageID)
	}

	w = env.do("GET", "/api/sms", nil)
	var history []models.SMSMessage
	json.Unmarshal(w.Body.Bytes(), &history)
	if len(history) != 1 {
		t.Errorf("expected 1 message in history, got %d", len(history))
	}

	w = env.do("GET", "/api/sms/"+msg.MessageID, nil)
	var status models.MessageStatus
	json.Unmarshal(w.Body.Bytes(), &status)
	if w.Code != http.StatusOK || status.Status != "delivered" {
		t.Errorf("unexpected status response %d: %s", w.Code, w.Body.String())
	}

	w = env.do("GET", "/api/sms/unknown-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	w = env.do("POST", "/api/sms", map[string]string{"phoneNumber": "+1234567890"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for missing message, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1, 1))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK {
		t.Errorf("expected first request to pass, got %d", codes[0])
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected second request to be limited, got %d", codes[1])
	}
}

func TestStreamAlerts_SSE(t *testing.T) {
	env := setupTestRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", "/api/alerts/stream", nil)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.router.ServeHTTP(w, req)
		close(done)
	}()

	// Wait for the stream to attach before changing anything
	deadline := time.Now().Add(time.Second)
	for env.svc.Alerts.Feed().ObserverCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	_, err := env.svc.Alerts.Send(context.Background(), models.AlertInput{Description: "Flood warning", Location: "Downtown"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after client disconnect")
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:alerts") {
		t.Errorf("expected alerts events, got %q", body)
	}
	if !strings.Contains(body, "Flood warning") {
		t.Errorf("expected latest snapshot to include the new alert, got %q", body)
	}
	if env.svc.Alerts.Feed().ObserverCount() != 0 {
		t.Errorf("expected stream to detach, %d observers left", env.svc.Alerts.Feed().ObserverCount())
	}
}
