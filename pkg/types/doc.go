// Package types defines the catalog entities, the raw record handed over by
// the scraping collaborator, backend configuration, and the standard errors
// shared by the storage backends and the sync engine.
package types
