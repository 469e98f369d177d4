// Package validate holds the structural checks applied to entities before
// any store I/O is attempted.
package validate

import (
	"github.com/rankstack/rankstack-sync/internal/model"
)

// Collection checks the invariants a collection must satisfy: non-empty ID
// and name, and a last-modified timestamp no earlier than creation.
func Collection(c *model.Collection) error {
	if c == nil {
		return model.NewValidationError("collection", "collection is required")
	}
	if c.ID == "" {
		return model.NewValidationError("id", "id is required")
	}
	if c.Name == "" {
		return model.NewValidationError("name", "name is required")
	}
	if c.UpdatedAt.Before(c.CreatedAt) {
		return model.NewValidationError("updatedAt", "updatedAt precedes createdAt")
	}
	return nil
}

// Item checks the invariants an item must satisfy: non-empty ID, owning
// collection ID, and title.
func Item(i *model.Item) error {
	if i == nil {
		return model.NewValidationError("item", "item is required")
	}
	if i.ID == "" {
		return model.NewValidationError("id", "id is required")
	}
	if i.CollectionID == "" {
		return model.NewValidationError("collectionId", "collectionId is required")
	}
	if i.Title == "" {
		return model.NewValidationError("title", "title is required")
	}
	return nil
}

// Items validates a whole batch up front so a bulk write can fail before
// any record is written.
func Items(items []*model.Item) error {
	for _, i := range items {
		if err := Item(i); err != nil {
			return err
		}
	}
	return nil
}
