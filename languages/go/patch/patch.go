// Package patch tracks which fields of a container changed. A Set holds field offsets (see
// mapping.Map.OffsetOf), Diff finds the fields that differ between two containers and
// Apply copies just those fields from one container to another. The wire package uses a
// Set to encode only the changed fields, which for large structures that change a little
// at a time is much smaller than sending the whole value.
package patch
