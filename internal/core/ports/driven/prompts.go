package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; overridden names return the override.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptHazardSystem is the system message for hazard synthesis.
	// This prompt has no format placeholders.
	PromptHazardSystem = "hazard_system"

	// PromptHazardAssessment asks for one hazard block per identified hazard.
	// The template expects %s (activity) and %s (similar past tasks).
	PromptHazardAssessment = "hazard_assessment"

	// PromptActivitySystem is the system message for activity generation.
	PromptActivitySystem = "activity_system"

	// PromptWorkActivities asks for three new work activities as a JSON list.
	// The template expects %s (process name).
	PromptWorkActivities = "work_activities"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in prompts.
	SetPromptStore(store PromptStore)
}
