// Package domain holds the model of the clinical data repository: versioned
// records (entities and acts), their subtypes, associated collections
// (identifiers, names, addresses, relationships, participations), concepts,
// security principals and the bundle container.
//
// Persistence semantics live in pkg/persistence; this package is data only.
package domain
