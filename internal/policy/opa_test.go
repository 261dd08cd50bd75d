package policy

import (
	"context"
	"testing"
)

func TestOPAEvaluator_EligibleRoles(t *testing.T) {
	e, err := NewOPAEvaluator("")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	ctx := context.Background()

	for _, role := range []string{"normal", "admin", "manager", "cashier"} {
		d, err := e.ExtensionAllowed(ctx, role)
		if err != nil {
			t.Fatalf("ExtensionAllowed(%q): %v", role, err)
		}
		if !d.Allowed {
			t.Errorf("role %q should be extension-eligible", role)
		}
		if d.Advisory != "" {
			t.Errorf("eligible role %q should have no advisory, got %q", role, d.Advisory)
		}
	}
}

func TestOPAEvaluator_DemoDenied(t *testing.T) {
	e, err := NewOPAEvaluator("")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	d, err := e.ExtensionAllowed(context.Background(), "demo")
	if err != nil {
		t.Fatalf("ExtensionAllowed: %v", err)
	}
	if d.Allowed {
		t.Error("demo role must not be extension-eligible")
	}
	if d.Advisory == "" {
		t.Error("demo denial must carry a non-empty advisory")
	}
}

func TestOPAEvaluator_UnknownRoleFailsClosed(t *testing.T) {
	e, err := NewOPAEvaluator("")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	for _, role := range []string{"", "root", "superuser"} {
		d, err := e.ExtensionAllowed(context.Background(), role)
		if err != nil {
			t.Fatalf("ExtensionAllowed(%q): %v", role, err)
		}
		if d.Allowed {
			t.Errorf("unknown role %q must fail closed", role)
		}
		if d.Advisory == "" {
			t.Errorf("denied role %q should carry an advisory", role)
		}
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	custom := `package pos.session_extension

default allowed = false
default advisory = "no extensions today"

allowed if { input.role == "kiosk" }
advisory = "" if { allowed }
`
	e, err := NewOPAEvaluator(custom)
	if err != nil {
		t.Fatalf("NewOPAEvaluator with custom policy: %v", err)
	}

	d, err := e.ExtensionAllowed(context.Background(), "kiosk")
	if err != nil {
		t.Fatalf("ExtensionAllowed: %v", err)
	}
	if !d.Allowed {
		t.Error("custom policy should allow kiosk")
	}

	d, err = e.ExtensionAllowed(context.Background(), "normal")
	if err != nil {
		t.Fatalf("ExtensionAllowed: %v", err)
	}
	if d.Allowed || d.Advisory != "no extensions today" {
		t.Errorf("custom policy should deny normal with advisory, got %+v", d)
	}
}

func TestOPAEvaluator_BadPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator("package broken\nallowed :="); err == nil {
		t.Fatal("NewOPAEvaluator should reject an uncompilable policy")
	}
}
