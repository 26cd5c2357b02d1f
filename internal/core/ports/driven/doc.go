// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: enumerates readable files under the docs directory
//   - Normaliser / NormaliserRegistry: text extraction per MIME type
//   - PostProcessorPipeline: chunking
//   - EmbeddingService: deterministic text-to-vector mapping
//   - IndexStore: build/persist/load lifecycle of the vector index
//   - LLMService: the generation handle (real or mock)
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - WebSearcher: best-effort internet augmentation
//   - FeedbackStore: append-only feedback log
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
