package rbac

import (
	"testing"

	"receiptstudio/infrastructure/cache"
)

func TestMatchPathWildcardSegments(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		ok      bool
	}{
		{pattern: "/app/receipts/*", path: "/app/receipts/abc", ok: true},
		{pattern: "/app/receipts/*/items/*/delete", path: "/app/receipts/abc/items/1/delete", ok: true},
		{pattern: "/app/templates/*/menu/*", path: "/app/templates/t1/menu/m1/toggle", ok: true},
		{pattern: "/app/admin/users", path: "/app/admin/users", ok: true},
		{pattern: "/app/admin/users", path: "/app/admin/users/1", ok: false},
		{pattern: "/app/receipts/*/edit", path: "/app/receipts/abc/delete", ok: false},
	}

	for _, tc := range cases {
		if got := matchPath(tc.pattern, tc.path); got != tc.ok {
			t.Fatalf("pattern=%s path=%s expected=%v got=%v", tc.pattern, tc.path, tc.ok, got)
		}
	}
}

func TestAllowedByRole(t *testing.T) {
	r := New(cache.NewRbacRolesCache())
	r.AddAll(Roles(), "RECEIPTS", "GET", "/app/receipts/*")
	r.Add(RoleAdmin, "USERS", "post", "/app/admin/users")

	if !r.Allowed([]string{RoleCashier}, "/app/receipts/abc", "GET") {
		t.Fatalf("expected cashier to view receipts")
	}
	if r.Allowed([]string{RoleCashier}, "/app/admin/users", "POST") {
		t.Fatalf("expected cashier to be denied user admin")
	}
	if !r.Allowed([]string{RoleAdmin}, "/app/admin/users", "POST") {
		t.Fatalf("expected admin to manage users")
	}
	var nilRbac *Rbac
	if nilRbac.Allowed([]string{RoleAdmin}, "/app/receipts/abc", "GET") {
		t.Fatalf("nil rbac must deny")
	}
}

func TestNormalizeRole(t *testing.T) {
	if NormalizeRole(" Cashier ") != RoleCashier {
		t.Fatalf("expected cashier")
	}
	if NormalizeRole("operator") != "" {
		t.Fatalf("expected unknown role to normalize to empty")
	}
}
