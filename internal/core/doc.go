// Package core holds the address-book domain: records, the CSV import
// pipeline and the store contract.
//
// It is independent of any transport. The web server and the CLI both drive
// it through [Service].
//
// # Import pipeline
//
// [Normalize] turns an uploaded file into validated payloads:
//
//  1. The bytes must be UTF-8; a leading byte-order mark is dropped and blank
//     content is rejected with [ErrEmptyFile].
//  2. [DetectDelimiter] chooses between comma and semicolon.
//  3. Header names are trimmed, lower-cased and resolved through an alias
//     table ("uwagi", "opis", "notes" and friends all mean description).
//  4. Every column in [RequiredColumns] must be present; an "id" column is
//     accepted and ignored.
//  5. Each data row becomes a [NewAddress] or a [RowError]. Row numbers are
//     1-indexed with the header as row 1.
//
// [Service.Import] then inserts the payloads one at a time and reports an
// [ImportSummary]. Structural problems match [ErrStructural] and write
// nothing; row problems never stop the batch.
//
// # Partial updates
//
// [AddressPatch] uses [Field] so that "leave unchanged", "set" and "clear"
// stay distinct. Marking an imported row for labels forwards a patch with
// only LabelMarked set.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]; see
// error_messages.go for the code table.
package core
