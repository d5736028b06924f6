package api

import "testing"

func TestEnsureSingleRoleIsExclusive(t *testing.T) {
	d := NewMemoryRoleDirectory()
	if err := d.EnsureSingleRole("u1", "g1", "INTJ"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if n, _ := d.CountMembersByRole("g1", "INTJ"); n != 1 {
		t.Fatalf("INTJ members = %d, want 1", n)
	}

	// A retake with a new result moves the member, never duplicates them.
	if err := d.EnsureSingleRole("u1", "g1", "ENFP"); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if n, _ := d.CountMembersByRole("g1", "INTJ"); n != 0 {
		t.Fatalf("INTJ members after reassign = %d, want 0", n)
	}
	if n, _ := d.CountMembersByRole("g1", "ENFP"); n != 1 {
		t.Fatalf("ENFP members = %d, want 1", n)
	}

	// Groups are independent.
	if err := d.EnsureSingleRole("u1", "g2", "INTJ"); err != nil {
		t.Fatalf("assign in g2: %v", err)
	}
	if n, _ := d.CountMembersByRole("g1", "ENFP"); n != 1 {
		t.Fatal("assignment in another group disturbed g1")
	}
	if n, _ := d.CountMembersByRole("g2", "INTJ"); n != 1 {
		t.Fatalf("g2 INTJ members = %d, want 1", n)
	}
}

func TestCountMembersUnknownGroup(t *testing.T) {
	d := NewMemoryRoleDirectory()
	if n, err := d.CountMembersByRole("nowhere", "INTJ"); err != nil || n != 0 {
		t.Fatalf("count = %d err=%v", n, err)
	}
}
