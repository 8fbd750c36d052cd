// Package library stores the classical music catalogue: persons, instruments,
// ensembles, works with their parts and sections, recordings with their
// performances, and mediums whose tracks point at files on disk.
//
// Writes follow one protocol. Update* replaces an entity and everything it
// owns inside a single transaction, creating any referenced entity the
// database has not seen yet from the payload itself, so values received from
// another library can be stored without first storing their dependencies.
// Delete* removes one row and lets the foreign keys either cascade to owned
// rows or refuse the delete when another entity still uses it.
//
// Reads hydrate the full graph. A reference that points nowhere is reported as
// *MissingItemError instead of being silently dropped.
package library
