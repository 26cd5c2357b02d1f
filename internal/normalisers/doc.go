// Package normalisers provides text extraction implementations and the
// registry that selects a normaliser per MIME type.
//
// Only text-native formats are handled here. PDF and image OCR
// extraction is delegated to external tooling upstream of the document
// source; the registry answers ErrUnsupportedType for anything it does
// not know.
package normalisers
