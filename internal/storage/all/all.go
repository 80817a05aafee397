// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. After that, the following kinds are
// available to storage.New:
//
//   - "postgres" (vendorsummary/internal/storage/postgres)
//   - "mssql"    (vendorsummary/internal/storage/mssql)
//   - "sqlite"   (vendorsummary/internal/storage/sqlite)
package all

import (
	_ "vendorsummary/internal/storage/mssql"
	_ "vendorsummary/internal/storage/postgres"
	_ "vendorsummary/internal/storage/sqlite"
)
