// Package core provides the ingestion and query logic for the registry store.
//
// The package has no transport dependencies and is driven by the CLI, the
// REST adapter and the JSON-RPC relay alike.
//
// # Import pipeline
//
// A [Loader] turns one delimited extract into the current contents of the
// registrations table:
//
//  1. The source is fingerprinted with [Fingerprint] (streaming SHA-256).
//  2. If the [Ledger] already holds the fingerprint the run is a no-op.
//  3. The table is cleared, then the file is streamed through a [LineReader]
//     and the [FieldParser]. Columns are resolved by header name.
//  4. Rows missing the registration number or organisation name are skipped
//     and counted; the rest are upserted in batches, one transaction each.
//  5. The ledger records the new version and archives the previous one.
//
// A failed batch aborts the run. Batches committed before it stay in place,
// so the table can hold a partial load until the next successful import.
//
// # Queries
//
// [QueryService] implements [Reader], the read surface shared by every
// adapter: Search, GetByKey, GetStats and ListVersions. Predicates are built
// with [WhereBuilder]; values are always bound as parameters.
//
// # Error Handling
//
// Failures are typed ([IOError], [TransactionError], [QueryError]) or
// sentinel values ([ErrDuplicateVersion], [ErrStoreNotInitialized],
// [ErrNotFound]). Adapters map them to user-facing messages with [MapError].
package core
