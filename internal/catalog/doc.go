// Package catalog defines the product record, the collaborator interfaces used
// while building a catalog, and the helpers that canonicalize and deduplicate
// records before they are exported.
package catalog
