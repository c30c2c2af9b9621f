// Package catalog is the service layer of the recipe backend.
//
// A Service validates requests for one entity type and delegates persistence
// to a Table. Tables come from a Backend; the memory, sqlite and dynamo
// sub-packages provide one each. Every backend enforces the same rules:
//
//   - ids are assigned on insert and never change
//   - a recipe's author, when set, and an ingredient's recipe must exist
//   - an entity with children cannot be deleted unless the delete cascades
//   - references in results carry the referenced entity's scalar fields only
package catalog
