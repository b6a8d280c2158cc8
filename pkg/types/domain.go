package types

import "time"

// Chat roles accepted by the relay.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn of a conversation.
type ChatMessage struct {
	// One of system, user, assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Message text.
	// example: Hello!
	Content string `json:"content" example:"Hello!"`
}

// ModelDescriptor is one entry of the downloadable model catalog.
type ModelDescriptor struct {
	// Model name as used by pull, unique within a listing.
	// example: llama3.2
	Name string `json:"name" example:"llama3.2"`
	// example: Meta's latest Llama model
	Description string `json:"description" example:"Meta's latest Llama model"`
	// Display size string; "Unknown" when the source has none.
	// example: 2.0GB
	Size     string   `json:"size" example:"2.0GB"`
	Tags     []string `json:"tags"`
	Official bool     `json:"official"`
	// Derived from the local inventory at request time.
	Installed bool `json:"installed"`
	// Last update reported by the catalog source.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// Modification time of the matching local model, null when not installed.
	Modified  *time.Time `json:"modified"`
	Pulls     int64      `json:"pulls,omitempty"`
	Downloads int64      `json:"downloads,omitempty"`
}

// ModelTagVariant is one tag of a catalog model (e.g. gemma3:1b).
type ModelTagVariant struct {
	// Full reference, model:tag.
	// example: gemma3:1b
	Name string `json:"name" example:"gemma3:1b"`
	// example: gemma3
	Model string `json:"model" example:"gemma3"`
	// example: 1b
	Tag         string `json:"tag" example:"1b"`
	Size        string `json:"size,omitempty"`
	Description string `json:"description"`
	Installed   bool   `json:"installed"`
	// Matching local model, when installed.
	LocalInfo *LocalModelRecord `json:"local_info,omitempty"`
}

// PullProgressEvent is one NDJSON object of an upstream pull stream.
type PullProgressEvent struct {
	// example: pulling manifest
	Status    string `json:"status,omitempty" example:"pulling manifest"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ModelDetails mirrors the details block of the Ollama inventory.
type ModelDetails struct {
	ParentModel       string   `json:"parent_model,omitempty"`
	Format            string   `json:"format,omitempty"`
	Family            string   `json:"family,omitempty"`
	Families          []string `json:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size,omitempty"`
	QuantizationLevel string   `json:"quantization_level,omitempty"`
}

// LocalModelRecord is a model installed on the upstream server.
type LocalModelRecord struct {
	// example: llama3.2:1b
	Name string `json:"name" example:"llama3.2:1b"`
	// example: llama3.2:1b
	Model string `json:"model,omitempty" example:"llama3.2:1b"`
	// Size in bytes.
	// example: 1321098329
	Size       int64         `json:"size" example:"1321098329"`
	Digest     string        `json:"digest"`
	ModifiedAt time.Time     `json:"modified_at"`
	Details    *ModelDetails `json:"details,omitempty"`
}

// LocalModelView adds display fields to a LocalModelRecord.
type LocalModelView struct {
	LocalModelRecord
	// example: 1.23 GB
	SizeFormatted string `json:"sizeFormatted" example:"1.23 GB"`
	// example: 2024/11/5 14:03:27
	ModifiedFormatted string `json:"modifiedFormatted" example:"2024/11/5 14:03:27"`
}
