package device

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petdoor_hub/internal/models"
)

func fullStatesJSON(doorOpen bool) string {
	m := map[string]bool{}
	for _, k := range models.FastStateKeys {
		m[k] = false
	}
	m[models.KeyDoor] = doorOpen
	b, _ := json.Marshal(m)
	return string(b)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewHTTPClient(srv.URL, "admin", "secret")
}

func TestHTTPClient_ResolveIdentity(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/device" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"name":"Backdoor","id":7,"sw_version":"1.2.3","serial_number":"PD-0007"}`))
	})

	id, err := c.ResolveIdentity(context.Background())
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if id.Name != "Backdoor" || id.ID != 7 || id.SerialNumber != "PD-0007" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if gotAuth == "" {
		t.Fatalf("request sent without basic auth")
	}
}

func TestHTTPClient_ResolveIdentity_MissingFields(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	if _, err := c.ResolveIdentity(context.Background()); !errors.Is(err, ErrProtocol) {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}

func TestHTTPClient_AvailablePets(t *testing.T) {
	var gotQuery string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"pet-1","name":"Misha","species":"Cat"},{"id":"pet-2","name":"Rex","species":"dog"}]`))
	})

	pets, err := c.AvailablePets(context.Background(), true)
	if err != nil {
		t.Fatalf("AvailablePets: %v", err)
	}
	if gotQuery != "include_all=true" {
		t.Fatalf("query %q, want include_all=true", gotQuery)
	}
	if len(pets) != 2 {
		t.Fatalf("got %d pets, want 2", len(pets))
	}
	if pets[0].Species != models.SpeciesCat || pets[1].Species != models.SpeciesDog {
		t.Fatalf("species not parsed: %+v", pets)
	}
}

func TestHTTPClient_FetchFastState(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		status  int
		wantErr error
	}{
		{"complete_map", fullStatesJSON(true), http.StatusOK, nil},
		{"missing_canonical_key", `{"door":true}`, http.StatusOK, ErrProtocol},
		{"malformed_json", `{"door":`, http.StatusOK, ErrProtocol},
		{"unauthorized", `{}`, http.StatusUnauthorized, ErrAuthentication},
		{"forbidden", `{}`, http.StatusForbidden, ErrAuthentication},
		{"server_error", `oops`, http.StatusInternalServerError, ErrProtocol},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			got, err := c.FetchFastState(context.Background())
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchFastState: %v", err)
			}
			if got[models.KeyDoor] != true {
				t.Fatalf("unexpected map: %v", got)
			}
			if len(got) != len(models.FastStateKeys) {
				t.Fatalf("got %d keys, want %d", len(got), len(models.FastStateKeys))
			}
		})
	}
}

func TestHTTPClient_FetchSlowState(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/timeline/42" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"pet_id":"pet-1","direction":"in","at":"2026-08-29T08:00:00Z"},
			{"pet_id":"pet-2","direction":"sideways","at":"2026-08-29T09:00:00Z"}
		]`))
	})

	slow, err := c.FetchSlowState(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchSlowState: %v", err)
	}
	if slow["pet-1"].Direction != models.DirectionIn {
		t.Fatalf("direction not parsed: %+v", slow["pet-1"])
	}
	// Unrecognized wire direction degrades to unknown instead of failing the
	// whole fetch.
	if slow["pet-2"].Direction != models.DirectionUnknown {
		t.Fatalf("unexpected direction for pet-2: %+v", slow["pet-2"])
	}
	wantAt := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	if !slow["pet-1"].At.Equal(wantAt) {
		t.Fatalf("timestamp %v, want %v", slow["pet-1"].At, wantAt)
	}
}

func TestHTTPClient_FetchSlowState_EntryWithoutPetID(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"direction":"in","at":"2026-08-29T08:00:00Z"}]`))
	})

	if _, err := c.FetchSlowState(context.Background(), 1); !errors.Is(err, ErrProtocol) {
		t.Fatalf("got %v, want ErrProtocol", err)
	}
}

func TestHTTPClient_WriteState(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]bool
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{}`))
	})

	if err := c.WriteState(context.Background(), models.KeyDoor, true); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/v1/states/door" {
		t.Fatalf("sent %s %s", gotMethod, gotPath)
	}
	if gotBody["value"] != true {
		t.Fatalf("body %v", gotBody)
	}
}

func TestHTTPClient_TimeoutMapsToErrTimeout(t *testing.T) {
	block := make(chan struct{})
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.FetchFastState(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestHTTPClient_ConnectionRefusedMapsToErrConnectivity(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.FetchFastState(context.Background())
	if !errors.Is(err, ErrConnectivity) {
		t.Fatalf("got %v, want ErrConnectivity", err)
	}
}
