package interpret

// Result holds the LLM-generated reading of a divination.
type Result struct {
	Reading string
	Advice  []string
	Mood    string
}

// API request/response types for OpenAI-compatible chat completions.

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type respFormat struct {
	Type string `json:"type"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// readingJSON is the expected JSON structure from the LLM response.
type readingJSON struct {
	Reading string   `json:"reading"`
	Advice  []string `json:"advice"`
	Mood    string   `json:"mood"`
}
