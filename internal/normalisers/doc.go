// Package normalisers contains the export-format normalisers. Each
// sub-package handles one export schema and produces the identical
// canonical []domain.MemoryRecord shape:
//
//   - snaphtml: the tabular/markup export (row groups with an
//     event-handler download link)
//   - snapjson: the structured export (flat JSON objects, optionally
//     wrapped under a fixed key)
package normalisers
