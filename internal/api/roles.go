package api

import (
	"sync"

	"github.com/jwyneal/typequiz/internal/services"
)

// MemoryRoleDirectory tracks type-role membership per group in memory. It
// stands in for the chat platform's role system in tests and single-process
// setups; a gateway adapter would implement the same interface against the
// real platform.
type MemoryRoleDirectory struct {
	mu sync.Mutex
	// groupID -> roleName -> member set
	groups map[string]map[string]map[string]struct{}
}

func NewMemoryRoleDirectory() *MemoryRoleDirectory {
	return &MemoryRoleDirectory{groups: map[string]map[string]map[string]struct{}{}}
}

// EnsureSingleRole leaves userID holding exactly roleName out of the
// sixteen type roles, creating the role in the group if it does not exist.
func (d *MemoryRoleDirectory) EnsureSingleRole(userID, groupID, roleName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := d.groups[groupID]
	if g == nil {
		g = map[string]map[string]struct{}{}
		d.groups[groupID] = g
	}
	for _, name := range services.TypeRoleNames() {
		if name == roleName {
			continue
		}
		if members := g[name]; members != nil {
			delete(members, userID)
		}
	}
	if g[roleName] == nil {
		g[roleName] = map[string]struct{}{}
	}
	g[roleName][userID] = struct{}{}
	return nil
}

func (d *MemoryRoleDirectory) CountMembersByRole(groupID, roleName string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := d.groups[groupID]
	if g == nil {
		return 0, nil
	}
	return len(g[roleName]), nil
}

var _ services.RoleDirectory = (*MemoryRoleDirectory)(nil)
