package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptMonitorProbe is the text embedded to search for watch-list mentions.
	// The template must contain PromptVarWatchList.
	PromptMonitorProbe = "monitor_probe"

	// PromptMonitorTask wraps retrieved transcripts for the summariser.
	// The template must contain PromptVarWatchList and PromptVarData.
	PromptMonitorTask = "monitor_task"

	// PromptMonitorInstructions is the system instruction for the summariser.
	// The template must contain PromptVarWatchList.
	PromptMonitorInstructions = "monitor_instructions"
)

// Placeholders substituted into prompt templates.
const (
	// PromptVarWatchList is replaced by the watch list, one entry per line.
	PromptVarWatchList = "{{watch_list}}"

	// PromptVarData is replaced by the retrieved transcripts.
	PromptVarData = "{{data}}"
)
