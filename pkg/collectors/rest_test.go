package collectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func TestRESTCollectorCollect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/password-policies/password-expiration" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"maxDays": 90, "minDays": 0, "warnDays": 7,
		})
	}))
	defer server.Close()

	c, err := NewRESTCollector(RESTConfig{
		Component: policy.ComponentManager,
		Endpoint:  server.URL,
		User:      "admin",
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("NewRESTCollector: %v", err)
	}

	set, err := c.Collect(context.Background(), policy.CategoryExpiration)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	exp := set.(policy.ExpirationPolicy)
	if exp.MaxDays != 90 || exp.WarnDays != 7 {
		t.Errorf("unexpected values: %+v", exp)
	}
	if exp.Component() != policy.ComponentManager {
		t.Errorf("component = %s, want manager", exp.Component())
	}
}

func TestRESTCollectorApply(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c, err := NewRESTCollector(RESTConfig{
		Component: policy.ComponentNetworkManager,
		Endpoint:  server.URL,
		Token:     "tok123",
	})
	if err != nil {
		t.Fatalf("NewRESTCollector: %v", err)
	}

	err = c.Apply(context.Background(), policy.LockoutPolicy{
		Comp:                 policy.ComponentNetworkManager,
		MaxFailures:          5,
		UnlockIntervalSec:    900,
		FailureIntervalSec:   900,
		CLIMaxFailures:       intptr(5),
		CLIUnlockIntervalSec: intptr(900),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
	if gotBody["maxFailures"] != float64(5) || gotBody["cliMaxFailures"] != float64(5) {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestRESTCollectorErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "appliance on fire", http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := NewRESTCollector(RESTConfig{Component: policy.ComponentDirectory, Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewRESTCollector: %v", err)
	}
	if _, err := c.Collect(context.Background(), policy.CategoryLockout); err == nil {
		t.Error("5xx response should surface an error")
	}
}

func TestRESTCollectorSchemaEnforced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// maxRetries is a host-only field.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"minLength": 8, "minLowercase": 1, "minUppercase": 1,
			"minNumeric": 1, "minSpecial": 1, "history": 5, "maxRetries": 3,
		})
	}))
	defer server.Close()

	c, err := NewRESTCollector(RESTConfig{Component: policy.ComponentManager, Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewRESTCollector: %v", err)
	}
	if _, err := c.Collect(context.Background(), policy.CategoryComplexity); err == nil {
		t.Error("response outside the component schema should fail")
	}
}

func TestRESTCollectorRequiresEndpoint(t *testing.T) {
	if _, err := NewRESTCollector(RESTConfig{Component: policy.ComponentManager}); err == nil {
		t.Error("missing endpoint should fail")
	}
}

func intptr(v int) *int { return &v }
