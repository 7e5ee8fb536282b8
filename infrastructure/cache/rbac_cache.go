package cache

import (
	"sync"
)

// Resource grants one role access to a method and path pattern.
type Resource struct {
	UserResourceCode string
	Path             string
	Method           string
	Role             string
}

// RbacRolesCache stores role to resources map.
type RbacRolesCache struct {
	mu        sync.RWMutex
	resources map[string][]Resource
	allRoutes map[string]struct{}
}

func NewRbacRolesCache() *RbacRolesCache {
	return &RbacRolesCache{
		resources: make(map[string][]Resource),
		allRoutes: make(map[string]struct{}),
	}
}

// Add registers r for role. Registering the same code, method and path twice is a no-op.
func (c *RbacRolesCache) Add(role string, r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.resources[role] {
		if existing.UserResourceCode == r.UserResourceCode && existing.Method == r.Method && existing.Path == r.Path {
			return
		}
	}
	c.resources[role] = append(c.resources[role], r)
	c.allRoutes[r.UserResourceCode] = struct{}{}
}

func (c *RbacRolesCache) GetRolesAndResources(roles []string) []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Resource, 0)
	for _, role := range roles {
		out = append(out, c.resources[role]...)
	}
	return out
}

// GetAllRouteNames returns every registered resource code.
func (c *RbacRolesCache) GetAllRouteNames() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.allRoutes))
	for route := range c.allRoutes {
		out[route] = 1
	}
	return out
}

// RouteNamesForRoles returns the resource codes granted to roles.
func (c *RbacRolesCache) RouteNamesForRoles(roles []string) map[string]int {
	out := make(map[string]int)
	for _, res := range c.GetRolesAndResources(roles) {
		out[res.UserResourceCode] = 1
	}
	return out
}
