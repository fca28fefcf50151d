package model

import "testing"

func TestRoleIn(t *testing.T) {
	tests := []struct {
		role     string
		allowed  []string
		expected bool
	}{
		{RoleAdmin, []string{RoleAdmin}, true},
		{RoleAdmin, []string{RoleAdmin, RoleStocker}, true},
		{RoleStocker, []string{RoleAdmin}, false},
		{RoleRepairTech, []string{RoleAdmin, RoleStocker}, false},
		{RoleRepairTech, []string{RoleRepairTech}, true},
		// Unknown roles fail-closed.
		{"unknown", []string{RoleAdmin, RoleStocker, RoleRepairTech}, false},
		{"", []string{RoleAdmin}, false},
		{RoleAdmin, nil, false},
	}

	for _, tt := range tests {
		got := RoleIn(tt.role, tt.allowed...)
		if got != tt.expected {
			t.Errorf("RoleIn(%q, %v) = %v, want %v", tt.role, tt.allowed, got, tt.expected)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleStocker, RoleRepairTech} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"admin", "Manager", ""} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
