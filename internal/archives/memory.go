package archives

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryCatalog is a Catalog held in memory, for tools and tests that run
// without the platform database.
type MemoryCatalog struct {
	mu       sync.Mutex
	orgs     []*Org
	archives []*Archive
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{}
}

// AddOrg adds a copy of o.
func (c *MemoryCatalog) AddOrg(o *Org) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *o
	c.orgs = append(c.orgs, &cp)
}

// AddArchive adds a copy of a.
func (c *MemoryCatalog) AddArchive(a *Archive) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *a
	c.archives = append(c.archives, &cp)
}

// Archive returns a copy of the archive with the given id, or nil.
func (c *MemoryCatalog) Archive(id int64) *Archive {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.archives {
		if a.ID == id {
			cp := *a
			return &cp
		}
	}
	return nil
}

// Orgs implements Catalog.
func (c *MemoryCatalog) Orgs(ctx context.Context, f OrgFilter) ([]*Org, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var orgs []*Org
	for _, o := range c.orgs {
		if !o.IsActive || (f.OrgID != 0 && o.ID != f.OrgID) || (o.IsSuspended && !f.IncludeSuspended) {
			continue
		}
		if !slices.ContainsFunc(c.archives, func(a *Archive) bool { return a.OrgID == o.ID }) {
			continue
		}
		cp := *o
		orgs = append(orgs, &cp)
	}
	slices.SortFunc(orgs, func(a, b *Org) int { return int(a.ID - b.ID) })
	return orgs, nil
}

// Archives implements Catalog.
func (c *MemoryCatalog) Archives(ctx context.Context, orgID int64, typ Type) ([]*Archive, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var archives []*Archive
	for _, a := range c.archives {
		if a.OrgID == orgID && a.Type == typ {
			cp := *a
			archives = append(archives, &cp)
		}
	}
	return archives, nil
}

// UpdateArchive implements Catalog.
func (c *MemoryCatalog) UpdateArchive(ctx context.Context, a *Archive) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.archives {
		if existing.ID == a.ID {
			existing.Hash, existing.Size, existing.Location, existing.RecordCount = a.Hash, a.Size, a.Location, a.RecordCount
			return nil
		}
	}
	return fmt.Errorf("update archive #%d: no such archive", a.ID)
}
