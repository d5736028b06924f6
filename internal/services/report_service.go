package services

import (
	"log"
	"sort"
)

// neutralResultText is what an undetermined classification reads as; the
// reporter never substitutes a plausible-looking label.
const neutralResultText = "Your answers did not settle on a single type this time. " +
	"The preference ranking below is still yours."

// RoleDirectory is the external role/membership collaborator on the chat
// platform. EnsureSingleRole leaves the member holding exactly the named
// role out of the sixteen type roles, creating it in the group if missing.
type RoleDirectory interface {
	EnsureSingleRole(userID, groupID, roleName string) error
	CountMembersByRole(groupID, roleName string) (int, error)
}

// TypeRoleNames returns the fixed sixteen-role set as plain strings, in
// label order. RoleDirectory implementations treat this as the set to keep
// membership exclusive over.
func TypeRoleNames() []string {
	out := make([]string, 0, len(TypeLabels))
	for _, l := range TypeLabels {
		out = append(out, string(l))
	}
	return out
}

// ReportService turns a classification into the user-facing report and
// performs the group-side effects (role assignment, distribution snapshot).
type ReportService struct {
	roles RoleDirectory
}

func NewReportService(roles RoleDirectory) *ReportService {
	return &ReportService{roles: roles}
}

// Build assembles the final report. Without a group context the role
// assignment and distribution are skipped and the personal result is still
// complete.
func (s *ReportService) Build(userID, groupID string, cls Classification) *Report {
	rep := &Report{
		Label:   cls.Label,
		Stack:   cls.Stack,
		Ranking: cls.Ranking,
	}
	if desc, ok := typeDescriptions[cls.Label]; ok {
		rep.LabelDescription = desc
	} else {
		rep.LabelDescription = neutralResultText
	}
	if len(cls.Stack) > 0 {
		rep.Dominant = cls.Stack[0]
		rep.DominantDescription = functionDescriptions[rep.Dominant]
	}

	if groupID == "" || s.roles == nil {
		return rep
	}
	if cls.Label != TypeUndetermined {
		if err := s.roles.EnsureSingleRole(userID, groupID, string(cls.Label)); err != nil {
			log.Printf("report: ensure role %s for %s in %s: %v", cls.Label, userID, groupID, err)
		}
	}
	rep.Distribution = s.Distribution(groupID)
	return rep
}

// Distribution counts current members per type role in the group, sorted by
// label.
func (s *ReportService) Distribution(groupID string) []RoleCount {
	if s.roles == nil || groupID == "" {
		return nil
	}
	labels := append([]TypeLabel(nil), TypeLabels...)
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	out := make([]RoleCount, 0, len(labels))
	for _, l := range labels {
		n, err := s.roles.CountMembersByRole(groupID, string(l))
		if err != nil {
			log.Printf("report: count role %s in %s: %v", l, groupID, err)
			continue
		}
		out = append(out, RoleCount{Label: l, Count: n})
	}
	return out
}
