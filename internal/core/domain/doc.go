// Package domain contains the core business entities of the RAG pipeline:
// documents, chunks, scored retrieval results and the domain error taxonomy.
// It has no dependencies on adapters or infrastructure.
package domain
