// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The matching pipeline is built from small pieces:
//
//   - Retriever: cosine top-k over a corpus and its embeddings
//   - KnowledgeBase: corpus and cache consistency, per-domain writers
//   - Classifier: novelty and activity reuse decisions
//   - Synthesizer: prompt, generate, parse
//
// HazardService and ReviewService compose them into use cases.
package services
