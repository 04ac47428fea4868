package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireRolesRejectsMissingActor(t *testing.T) {
	mw := Middleware{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without an actor")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	mw.RequireRoles(RoleHR)(next).ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRequireRolesRejectsDisallowedRole(t *testing.T) {
	mw := Middleware{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a disallowed role")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: "u-emp-001", Role: RoleEmployee}))
	res := httptest.NewRecorder()
	mw.RequireRoles(RoleHR, RoleManager)(next).ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestRequireRolesPassesAllowedRole(t *testing.T) {
	mw := Middleware{}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: "u-hr-001", Role: RoleHR}))
	res := httptest.NewRecorder()
	mw.RequireRoles(RoleHR)(next).ServeHTTP(res, req)
	if !called {
		t.Fatal("expected handler to run")
	}
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	mw := Middleware{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: "u-emp-001", Role: RoleEmployee}))
	res := httptest.NewRecorder()
	mw.RequirePermission("governance:manage")(next).ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}
