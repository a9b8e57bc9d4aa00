package pipedrive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grupoblue/lead-insights/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, "token123", logging.Default())
}

func TestClient_SearchPersonByEmail_Found(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/persons/search" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("term") != "lead@example.com" || q.Get("exact_match") != "true" {
			t.Fatalf("query = %v", q)
		}
		if q.Get("api_token") != "token123" {
			t.Fatal("api_token missing from query")
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[{"result_score":0.9,"item":{"id":17,"name":"Ana Souza","primary_email":"lead@example.com","add_time":"2024-01-10 09:30:00"}}]}}`))
	})

	person, err := client.SearchPersonByEmail(context.Background(), "lead@example.com")
	if err != nil {
		t.Fatalf("SearchPersonByEmail() error = %v", err)
	}
	if person == nil || person.ID != 17 || person.Name != "Ana Souza" {
		t.Fatalf("person = %+v", person)
	}
	if person.Email != "lead@example.com" {
		t.Fatalf("Email = %q, want primary email from search item", person.Email)
	}
	want := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	if !person.AddTime.Equal(want) {
		t.Fatalf("AddTime = %v, want %v", person.AddTime, want)
	}
}

func TestClient_SearchPersonByEmail_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[]}}`))
	})

	person, err := client.SearchPersonByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if person != nil {
		t.Fatalf("person = %+v, want nil", person)
	}
}

func TestClient_GetPersonDeals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/persons/17/deals" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":101,"title":"Plano Trimestral","status":"won","value":2500,"currency":"BRL","won_time":"2024-03-01 14:00:00","update_time":"2024-03-01 14:00:00","add_time":"2024-02-01 10:00:00","won_time_is_null":false},
			{"id":102,"title":"Follow-up","status":"open","value":800,"currency":"BRL","won_time":null,"update_time":"2024-03-05 09:00:00","add_time":"2024-03-02 10:00:00"}
		]}`))
	})

	deals, err := client.GetPersonDeals(context.Background(), 17)
	if err != nil {
		t.Fatalf("GetPersonDeals() error = %v", err)
	}
	if len(deals) != 2 {
		t.Fatalf("len(deals) = %d, want 2", len(deals))
	}
	if deals[0].Status != DealStatusWon || deals[0].WonTime.IsZero() {
		t.Fatalf("deal 0 = %+v", deals[0])
	}
	if !deals[1].WonTime.IsZero() {
		t.Fatalf("null won_time should decode to zero, got %v", deals[1].WonTime)
	}
}

func TestClient_GetCRMData_NoPersonIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[]}}`))
	})

	data, err := client.GetCRMData(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if data == nil || data.Person != nil || len(data.Deals) != 0 {
		t.Fatalf("data = %+v, want empty", data)
	}
}

func TestClient_GetCRMData_WithDeals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/persons/search":
			_, _ = w.Write([]byte(`{"success":true,"data":{"items":[{"item":{"id":17,"name":"Ana Souza"}}]}}`))
		case "/v1/persons/17/deals":
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":101,"title":"Plano Trimestral","status":"open","value":2500}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	data, err := client.GetCRMData(context.Background(), "lead@example.com")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if data.Person == nil || len(data.Deals) != 1 {
		t.Fatalf("data = %+v", data)
	}
}

func TestClient_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.SearchPersonByEmail(context.Background(), "lead@example.com"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestTimestamp_RFC3339Fallback(t *testing.T) {
	var ts Timestamp
	if err := ts.UnmarshalJSON([]byte(`"2024-03-01T14:00:00Z"`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	want := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("ts = %v, want %v", ts.Time, want)
	}
}
