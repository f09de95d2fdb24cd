package catalog

import (
	"fmt"
	"sort"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/repositories"
	"github.com/desertthunder/mazeed/internal/shared"
)

// Catalog holds the imported content and the current selection.
//
// A Catalog is owned by one goroutine and is not safe for concurrent use.
type Catalog struct {
	store    repositories.KeyValueStore
	items    []models.ContentItem
	index    map[models.ID]int
	selected map[models.ID]struct{}
}

// New creates an empty catalog backed by store.
func New(store repositories.KeyValueStore) *Catalog {
	return &Catalog{
		store:    store,
		index:    make(map[models.ID]int),
		selected: make(map[models.ID]struct{}),
	}
}

// Load reads previously imported reels from storage.
func (c *Catalog) Load() error {
	var items []models.ContentItem
	if _, err := repositories.GetJSON(c.store, repositories.KeyInstagramReels, &items); err != nil {
		return err
	}
	c.set(items)
	return nil
}

// Import stores the result of an Instagram connect and replaces the catalog.
func (c *Catalog) Import(data models.ConnectData) error {
	if len(data.Reels) == 0 {
		return shared.ErrEmptyImport
	}
	if err := repositories.SetJSON(c.store, repositories.KeyInstagramReels, data.Reels); err != nil {
		return err
	}
	if err := repositories.SetJSON(c.store, repositories.KeyInstagramAccountIDs, data.AccountIDs); err != nil {
		return err
	}
	if err := repositories.SetJSON(c.store, repositories.KeyInstagramAuth, data); err != nil {
		return err
	}
	c.set(data.Reels)
	return nil
}

func (c *Catalog) set(items []models.ContentItem) {
	c.items = items
	c.index = make(map[models.ID]int, len(items))
	for i, item := range items {
		c.index[item.ID] = i
	}
}

// Items returns every imported item in import order.
func (c *Catalog) Items() []models.ContentItem {
	return c.items
}

// Len is the number of imported items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Get returns the item with id.
func (c *Catalog) Get(id models.ID) (models.ContentItem, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.ContentItem{}, false
	}
	return c.items[i], true
}

// Toggle flips the selection of id and reports whether it is now selected.
func (c *Catalog) Toggle(id models.ID) bool {
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false
	}
	c.selected[id] = struct{}{}
	return true
}

// ToggleAll selects every item, or clears the selection when everything is already selected.
func (c *Catalog) ToggleAll() {
	if len(c.items) > 0 && len(c.selected) == len(c.items) {
		c.Clear()
		return
	}
	for _, item := range c.items {
		c.selected[item.ID] = struct{}{}
	}
}

// Select replaces the selection. Unknown ids are rejected when the catalog is loaded.
func (c *Catalog) Select(ids []models.ID) error {
	if len(c.items) > 0 {
		for _, id := range ids {
			if _, ok := c.index[id]; !ok {
				return fmt.Errorf("%w: unknown content id %q", shared.ErrInvalidArgument, id)
			}
		}
	}
	c.Clear()
	for _, id := range ids {
		c.selected[id] = struct{}{}
	}
	return nil
}

// IsSelected reports whether id is selected.
func (c *Catalog) IsSelected(id models.ID) bool {
	_, ok := c.selected[id]
	return ok
}

// Selected returns the selected ids in sorted order.
func (c *Catalog) Selected() []models.ID {
	ids := make([]models.ID, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SelectedItems returns the selected items in catalog order.
func (c *Catalog) SelectedItems() []models.ContentItem {
	out := make([]models.ContentItem, 0, len(c.selected))
	for _, item := range c.items {
		if c.IsSelected(item.ID) {
			out = append(out, item)
		}
	}
	return out
}

// Sources converts the selection into the media sources of a transformation request.
func (c *Catalog) Sources() []models.MediaSource {
	items := c.SelectedItems()
	out := make([]models.MediaSource, len(items))
	for i, item := range items {
		out[i] = item.Source()
	}
	return out
}

// Clear drops the selection in memory.
func (c *Catalog) Clear() {
	c.selected = make(map[models.ID]struct{})
}

// SaveSelection persists the selected ids.
func (c *Catalog) SaveSelection() error {
	return repositories.SetJSON(c.store, repositories.KeySelectedContentIDs, c.Selected())
}

// RestoreSelection reloads the persisted selection, ignoring ids no longer in the catalog.
func (c *Catalog) RestoreSelection() error {
	var ids []models.ID
	if _, err := repositories.GetJSON(c.store, repositories.KeySelectedContentIDs, &ids); err != nil {
		return err
	}
	c.Clear()
	for _, id := range ids {
		if _, ok := c.index[id]; ok || len(c.items) == 0 {
			c.selected[id] = struct{}{}
		}
	}
	return nil
}

// ForgetSelection removes the persisted selection.
func (c *Catalog) ForgetSelection() error {
	c.Clear()
	return c.store.Remove(repositories.KeySelectedContentIDs)
}
