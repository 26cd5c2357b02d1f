// Package services implements the core application logic: the index
// build/load lifecycle, retrieval, response generation, the streaming
// turn orchestrator and answer evaluation. Services depend only on the
// port interfaces in core/ports and are wired to adapters at startup.
package services
