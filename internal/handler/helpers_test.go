package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside/api/internal/auth"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
)

const testJWTSecret = "test-secret-for-handlers"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// doRequest sends body as JSON. A non-nil claims adds a signed bearer token.
func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if claims != nil {
		token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Role)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

// decodeData decodes the envelope's data into a generic map.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("expected success envelope, got message %q", env.Message)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return data
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	env := decodeEnvelope(t, rr)
	var data []map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return data
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	expectStatus(t, rr, status)
	env := decodeEnvelope(t, rr)
	if env.Success {
		t.Fatal("expected success=false")
	}
	if message != "" && env.Message != message {
		t.Errorf("message: got %q, want %q", env.Message, message)
	}
}

func staffClaims(role string) *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Role: role}
}

func adminClaims() *auth.Claims {
	return staffClaims(enum.UserRoleAdmin)
}

func testNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func testTable(number int32, status string) database.DiningTable {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return database.DiningTable{
		ID:        uuid.New(),
		Number:    number,
		Capacity:  4,
		Status:    status,
		Floor:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
