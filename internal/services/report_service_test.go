package services

import (
	"errors"
	"sort"
	"testing"
)

type stubRoles struct {
	ensured []string // "user/group/role"
	counts  map[string]int
	failAll bool
}

func (r *stubRoles) EnsureSingleRole(userID, groupID, roleName string) error {
	if r.failAll {
		return errors.New("gateway unavailable")
	}
	r.ensured = append(r.ensured, userID+"/"+groupID+"/"+roleName)
	return nil
}

func (r *stubRoles) CountMembersByRole(groupID, roleName string) (int, error) {
	if r.failAll {
		return 0, errors.New("gateway unavailable")
	}
	return r.counts[roleName], nil
}

func TestBuildReportWithGroup(t *testing.T) {
	roles := &stubRoles{counts: map[string]int{"INTJ": 3, "ENFP": 1}}
	svc := NewReportService(roles)

	cls := Classify(map[Function]int{Ni: 10, Te: 9, Fi: 2, Se: 1})
	rep := svc.Build("u1", "g1", cls)

	if rep.Label != "INTJ" {
		t.Fatalf("label = %s", rep.Label)
	}
	if rep.Dominant != Ni || rep.DominantDescription == "" {
		t.Fatalf("dominant = %s (%q)", rep.Dominant, rep.DominantDescription)
	}
	if rep.LabelDescription == "" || rep.LabelDescription == neutralResultText {
		t.Fatalf("label description = %q", rep.LabelDescription)
	}
	if len(roles.ensured) != 1 || roles.ensured[0] != "u1/g1/INTJ" {
		t.Fatalf("role calls = %v", roles.ensured)
	}
	if len(rep.Distribution) != 16 {
		t.Fatalf("distribution rows = %d, want 16", len(rep.Distribution))
	}
	if !sort.SliceIsSorted(rep.Distribution, func(i, j int) bool {
		return rep.Distribution[i].Label < rep.Distribution[j].Label
	}) {
		t.Fatal("distribution not sorted by label")
	}
	for _, rc := range rep.Distribution {
		if rc.Label == "INTJ" && rc.Count != 3 {
			t.Fatalf("INTJ count = %d, want 3", rc.Count)
		}
	}
}

func TestBuildReportWithoutGroup(t *testing.T) {
	roles := &stubRoles{}
	svc := NewReportService(roles)
	rep := svc.Build("u1", "", Classify(map[Function]int{Ni: 10, Te: 9}))
	if len(roles.ensured) != 0 {
		t.Fatalf("role assigned outside any group: %v", roles.ensured)
	}
	if rep.Distribution != nil {
		t.Fatal("distribution produced outside any group")
	}
	if rep.Label != "INTJ" {
		t.Fatalf("label = %s", rep.Label)
	}
}

func TestBuildReportUndetermined(t *testing.T) {
	roles := &stubRoles{}
	svc := NewReportService(roles)
	cls := Classify(map[Function]int{Ne: 10, Ni: 9, Ti: 8, Te: 7})
	rep := svc.Build("u1", "g1", cls)

	if rep.Label != TypeUndetermined {
		t.Fatalf("label = %s", rep.Label)
	}
	if rep.LabelDescription != neutralResultText {
		t.Fatalf("description = %q, want the neutral text", rep.LabelDescription)
	}
	if len(roles.ensured) != 0 {
		t.Fatalf("role assigned for undetermined result: %v", roles.ensured)
	}
	if len(rep.Ranking) != 8 {
		t.Fatalf("ranking length = %d", len(rep.Ranking))
	}
}

func TestBuildReportSurvivesRoleFailure(t *testing.T) {
	svc := NewReportService(&stubRoles{failAll: true})
	rep := svc.Build("u1", "g1", Classify(map[Function]int{Ni: 10, Te: 9}))
	// The personal result must come through even when the gateway is down.
	if rep.Label != "INTJ" || rep.LabelDescription == "" {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Distribution) != 0 {
		t.Fatalf("distribution = %v, want none when every count fails", rep.Distribution)
	}
}

func TestTypeRoleNames(t *testing.T) {
	names := TypeRoleNames()
	if len(names) != 16 {
		t.Fatalf("role names = %d, want 16", len(names))
	}
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate role %s", n)
		}
		seen[n] = true
	}
}
