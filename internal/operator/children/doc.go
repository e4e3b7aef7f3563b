// Package children creates, updates and deletes the cluster objects that
// realize a StellarNode.
//
// The storage claim is get-or-create only. Every other child kind goes
// through a single server-side apply primitive with a fixed field manager
// and forced ownership, so repeated applies converge without read-modify-write
// races. Deletes treat NotFound as success.
package children
