// Package weblink defines the core types shared across the inspector: the
// fetch result, the versioned metadata record and its inspection outcome, the
// blog entities served by the same collaborator store, and the small
// interfaces the inspection pipeline depends on.
package weblink
