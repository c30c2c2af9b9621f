// Package store keeps the recipe hierarchy consistent in DynamoDB.
//
// Authors own recipes and recipes own ingredients. Every write that links a
// child to a parent runs in one transaction together with a condition check
// on the parent row, so a recipe can never point at a missing or expired
// author. The links themselves are rows in a separate relationship table,
// partitioned by parent and spread over NumShards shards, which lets the
// store answer "does this author still own anything" without scanning the
// entity tables.
//
// Entities describe themselves through [Entity]. A child additionally
// implements [ParentChecker]; a child whose parent is optional returns a nil
// check and an empty parent ref and is stored as a root.
//
// Identifiers are int64 values handed out by [Store.NextID] from a sequence
// table. Rows carry a version attribute and [Store.Update] fails with
// [ErrConcurrentModification] when the stored version moved on.
//
// Deleting sets a ttl attribute instead of removing the row. Readers treat
// an expired ttl as absent. Children either follow through the stream
// handler in package stream or, with Config.InlineCascade, within the same
// call.
//
// Failures are reported as the sentinels [ErrNotFound], [ErrParentNotFound],
// [ErrAlreadyExists], [ErrHasChildren] and [ErrConcurrentModification].
package store
