package prompts

// PromptVersion represents a version identifier for prompts.
type PromptVersion string

const (
	// PromptV1 is the first version of prompts.
	PromptV1 PromptVersion = "1.0.0"
)

// Prompt IDs.
const (
	IDGeneral         = "general"
	IDBondPricing     = "bond_pricing"
	IDClassify        = "classify"
	IDDataStrategy    = "data_strategy"
	IDSceneAnalyzer   = "scene_analyzer"
	IDArranger        = "arranger"
	IDScriptGenerator = "script_generator"
	IDDescribe        = "describe"
)

// Prompt represents a versioned prompt with metadata.
type Prompt struct {
	ID          string        // Unique identifier (e.g., "general", "classify")
	Version     PromptVersion // Version of this prompt
	Content     string        // The actual prompt text
	Description string        // Human-readable description
	Tags        []string      // e.g. ["excel", "expert"]
	Deprecated  bool          // True if this version is deprecated
}
