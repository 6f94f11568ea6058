// Package core provides the validation side of ledger item imports.
//
// This package contains all domain logic that does not talk to the ledger:
// schema variants, row validation, error accumulation and batching. It is
// used by the itemimport CLI, the importer and tests without modification.
//
// # Row Variants
//
// An input stream follows one of four column schemas, registered at init
// time in the variant registry:
//
//	WithoutFile       ID, DESCRIPTION, TERMS_AND_CONDITIONS TYPE/PARAMETERS
//	WithFile          WithoutFile + FILE NAME/CONTENT TYPE/SIZE/HASH
//	WithToken         WithoutFile + TOKEN TYPE/ID/ISSUANCE
//	WithFileAndToken  WithFile + RESTRICTED + token columns
//
// [DetectVariant] picks the variant with the largest column set contained in
// the observed header, so superfluous columns are tolerated.
//
// # Validation Flow
//
// A single forward pass drives everything:
//
//  1. A [RowSource] (CSV or XLSX) yields rows as column-name to value maps
//  2. [Validator.Validate] detects the variant on the first row, then
//     validates every non-empty row into an [Item]
//  3. Row problems are joined with "; " into Item.ValidationError and tallied
//     per exact message; they never stop the pass
//  4. [Validator.Result] finalizes into a [StreamResult] or a [SchemaError]
//
// [ReadItems] wires these steps together.
//
// # Batching
//
// [Batcher] slices an ordered sequence into contiguous groups of a fixed
// size for the importer.
//
// # Error Handling
//
// Technical errors are mapped to support codes with [MapError]:
//
//   - SCH001-SCH002: Schema errors (unknown header, empty file)
//   - VAL001-VAL006: Row validation errors
//   - LED001-LED005: Ledger errors (integrity, conflicts, hash mismatch)
//   - FILE001-FILE004: Input file errors
//   - UPL001-UPL003: Upload slot errors
//   - DB001-DB003: Ledger storage errors
package core
