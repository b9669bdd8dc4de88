package auth

import "testing"

func TestNewPolicyService(t *testing.T) {
	p := NewPolicyService("123, 456", "789, not-a-number , 123")

	if !p.IsAdmin(123) || !p.IsAdmin(456) {
		t.Error("admin IDs not parsed")
	}
	if p.IsAdmin(789) {
		t.Error("non-admin reported as admin")
	}
	if len(p.AllowedUserIDs) != 2 {
		t.Errorf("allowed list has %d entries, want 2 (junk dropped)", len(p.AllowedUserIDs))
	}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name    string
		admins  string
		allowed string
		userID  int64
		want    bool
	}{
		{"empty allowlist admits everyone", "", "", 42, true},
		{"listed user allowed", "", "42", 42, true},
		{"unlisted user rejected", "", "42", 43, false},
		{"admin bypasses allowlist", "99", "42", 99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicyService(tt.admins, tt.allowed)
			if got := p.IsAllowed(tt.userID); got != tt.want {
				t.Errorf("IsAllowed(%d) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}
