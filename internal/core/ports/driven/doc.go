// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - StreamSource / SegmentSource: Produce audio for a channel
//   - ChunkIndexStore: Persists the next segment sequence per channel
//   - Transcriber: Asynchronous speech-to-text engine
//   - Embedder: Turns transcript text into vectors
//   - VectorStore: Time-indexed similarity store with pagination
//   - ConfigStore: Application configuration
//   - SchedulerStore: Scheduled task state and history
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Summariser: Without it, the monitor cannot produce alerts.
//   - Notifier: Without it, summaries are logged only.
//   - PromptStore: Without it, built-in prompt templates are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
