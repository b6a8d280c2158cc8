package types

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	// Conversation so far, oldest first. The server prepends its system message.
	Messages []ChatMessage `json:"messages"`
	// Ollama OpenAI-compatible base URL.
	// example: http://localhost:11434/v1
	Endpoint string `json:"endpoint,omitempty" example:"http://localhost:11434/v1"`
	// OpenAI API key; selects the OpenAI provider when set.
	APIKey string `json:"apiKey,omitempty"`
	// example: llama3.2
	ModelName string `json:"modelName,omitempty" example:"llama3.2"`
	// Optional explicit provider: ollama or openai.
	// example: ollama
	Provider string `json:"provider,omitempty" example:"ollama"`
}

// CatalogResponse is returned by GET /models/catalog.
type CatalogResponse struct {
	Success     bool               `json:"success"`
	Models      []ModelDescriptor  `json:"models"`
	LocalModels []LocalModelRecord `json:"localModels"`
	// Which catalog source produced the list.
	// example: ollamadb
	Source string `json:"source" example:"ollamadb"`
}

// TagsResponse is returned by GET /models/tags.
type TagsResponse struct {
	Success bool              `json:"success"`
	Model   string            `json:"model"`
	Tags    []ModelTagVariant `json:"tags"`
}

// LocalModelsResponse is returned by GET /models/local.
type LocalModelsResponse struct {
	Success bool             `json:"success"`
	Models  []LocalModelView `json:"models"`
	Count   int              `json:"count"`
	Error   string           `json:"error,omitempty"`
}

// DeleteRequest is the payload of DELETE /models/local.
type DeleteRequest struct {
	Endpoint   string   `json:"endpoint,omitempty"`
	ModelName  string   `json:"modelName,omitempty"`
	ModelNames []string `json:"modelNames,omitempty"`
	// Free-text reason, logged only.
	Reason string `json:"reason,omitempty"`
}

// DeleteResponse reports the outcome of a single or bulk delete.
type DeleteResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Total   int      `json:"total,omitempty"`
}

// ManageRequest is the payload of POST /models/manage.
type ManageRequest struct {
	Endpoint  string `json:"endpoint,omitempty"`
	ModelName string `json:"modelName"`
	// pull or delete.
	// example: pull
	Action string `json:"action" example:"pull"`
}

// PullStreamRequest is the payload of POST /models/pull-stream.
type PullStreamRequest struct {
	Endpoint  string `json:"endpoint,omitempty"`
	ModelName string `json:"modelName"`
}

// MessageResponse is the generic {success, message|error} envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OpenAIModel is a chat-capable model of the OpenAI account.
type OpenAIModel struct {
	// example: gpt-4o-mini
	ID          string `json:"id" example:"gpt-4o-mini"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Created     int64  `json:"created"`
	OwnedBy     string `json:"owned_by"`
	IsFineTuned bool   `json:"is_fine_tuned"`
}

// OpenAIModelsResponse is returned by GET /models/openai.
type OpenAIModelsResponse struct {
	Success bool          `json:"success"`
	Models  []OpenAIModel `json:"models"`
}

// TestConnectionRequest is the payload of POST /test-connection.
type TestConnectionRequest struct {
	// URL probed with GET, e.g. http://localhost:11434/api/tags.
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	Success bool `json:"success"`
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// Upstream or validation detail.
	Details string `json:"details,omitempty"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
