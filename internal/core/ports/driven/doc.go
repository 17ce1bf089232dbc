// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CorpusStore: Delimited phrase files, one per knowledge domain
//   - EmbeddingCache: Persisted embeddings aligned with each corpus
//   - EmbeddingService: Generates vector embeddings
//   - KnownDataStore: Approved hazard assessment records
//   - HazardStore: Pending hazards awaiting review
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, novel activities get no synthesized hazards.
//   - PromptStore: Prompt overrides. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
