// Package core provides the merge, convert and split operations behind the
// smart tools, independent of any UI or transport layer. Web handlers, the
// CLI and tests all call it the same way.
//
// # Architecture
//
//   - Tables: [LoadTable] and [WriteTable] move between CSV or .xlsx bytes and
//     an in-memory [Table] of typed cells.
//   - Operations: each tool is an [OperationDefinition] in the registry,
//     looked up by [OpKind] and run through [Service.Run].
//   - Sessions: a [Session] holds the open tool, the uploaded batch and the
//     user's [FileOrder] over it.
//   - Jobs: [Service.StartJob] runs an operation in the background and
//     streams ticks to [Service.SubscribeProgress].
//
// # Operations
//
//	pdf    MergeDocuments             -> merged.pdf
//	excel  MergeTables (.xlsx)        -> merged.xlsx
//	csv    MergeTables (.csv)         -> merged.csv
//	e2c    LoadTable + WriteTable     -> converted.csv
//	c2e    LoadTable + WriteTable     -> converted.xlsx
//	split  SplitTable + PackageChunks -> split_files.zip of part_<i>.<ext>
//
// Tables merge by the union of their columns in order of first appearance;
// cells for columns a file lacks are left empty. With [Options.Strict] any
// difference in columns fails with a KindSchema error instead.
//
// # Progress
//
// Operations call a [TickFunc] once per file read or chunk written. The
// [Reporter] behind it receives those ticks and then exactly one of
// Succeed or Fail; [GuardReporter] enforces that order.
//
// # Error Handling
//
// Every operation error is an [*OpError] carrying an [ErrorKind] and, when
// known, the offending file. [MapError] turns any error into a
// [UserMessage] with a support code:
//
//   - FILE001-FILE009: upload and parse errors
//   - DOC001-DOC002: PDF errors
//   - OP001-OP008: invalid options and ordering
//   - SES001-SES004: expired sessions, jobs and requests
//   - RATE001-RATE002: throttling
package core
