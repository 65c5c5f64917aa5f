package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		JSON(map[string]string{"hello": "world"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if strings.TrimSpace(w.Body.String()) != `{"hello":"world"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body should be empty, got %q", w.Body.String())
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		TriggerBudgetChanged("transactions_variables", "depenses_variables").
		TriggerSuccessNotification("Saved").
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}

	var changed struct {
		Tables []string `json:"tables"`
	}
	if err := json.Unmarshal(triggers[TriggerBudgetChanged], &changed); err != nil {
		t.Fatal(err)
	}
	if strings.Join(changed.Tables, ",") != "transactions_variables,depenses_variables" {
		t.Errorf("tables = %v", changed.Tables)
	}

	var note struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(triggers[TriggerNotification], &note); err != nil {
		t.Fatal(err)
	}
	if note.Type != "success" || note.Message != "Saved" || note.Duration != 3000 {
		t.Errorf("notification = %+v", note)
	}
}

func TestResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().Header("X-Custom", "value").Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("X-Custom = %q", w.Header().Get("X-Custom"))
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ResponseBuilder
		wantCode int
		wantType string
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest, "warning"},
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity, "warning"},
		{"not found", NotFoundError("bad"), http.StatusNotFound, "warning"},
		{"too many requests", TooManyRequestsError(), http.StatusTooManyRequests, "warning"},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError, "error"},
		{"unavailable", ServiceUnavailableError("bad"), http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %q (%v)", w.Body.String(), err)
			}
			if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"`+tt.wantType+`"`) {
				t.Errorf("HX-Trigger = %s, want %s notification", w.Header().Get("HX-Trigger"), tt.wantType)
			}
		})
	}
}
