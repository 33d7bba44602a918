package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	if resp.Message != "ok" {
		t.Errorf("expected message 'ok', got %q", resp.Message)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestError_WithAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, NewBadRequest("title is required"))
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 400 {
		t.Errorf("expected code 400, got %d", resp.Code)
	}
	if resp.Message != "title is required" {
		t.Errorf("expected message 'title is required', got %q", resp.Message)
	}
}

func TestError_ConflictDistinctFromIllegalTransition(t *testing.T) {
	conflict := performRequest(func(c *gin.Context) {
		Error(c, NewConflict("article status changed concurrently"))
	})
	illegal := performRequest(func(c *gin.Context) {
		Error(c, NewIllegalTransition("cannot transition from draft to published"))
	})

	if conflict.Code != http.StatusConflict {
		t.Errorf("conflict status = %d, expected %d", conflict.Code, http.StatusConflict)
	}
	if illegal.Code != http.StatusUnprocessableEntity {
		t.Errorf("illegal transition status = %d, expected %d", illegal.Code, http.StatusUnprocessableEntity)
	}
	if conflict.Code == illegal.Code {
		t.Error("conflict and illegal transition must be distinguishable by status")
	}
	if parseResponse(t, conflict).Code == parseResponse(t, illegal).Code {
		t.Error("conflict and illegal transition must be distinguishable by code")
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 500 {
		t.Errorf("expected code 500, got %d", resp.Code)
	}
	// Backend error details must not reach the client.
	if resp.Message != "internal server error" {
		t.Errorf("generic error leaked message: %q", resp.Message)
	}
}

func TestForbidden(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Forbidden(c, "missing permission article:publish")
	})

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 403 {
		t.Errorf("expected code 403, got %d", resp.Code)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	err := NewNotFound("article not found")
	if err.Error() != "article not found" {
		t.Errorf("expected 'article not found', got %q", err.Error())
	}
}
