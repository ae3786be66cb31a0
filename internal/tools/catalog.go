package tools

// Built-in tool names.
const (
	ToolReadFile       = "read_file"
	ToolWriteFile      = "write_file"
	ToolListDirectory  = "list_directory"
	ToolSearchFiles    = "search_files"
	ToolDeleteFile     = "delete_file"
	ToolGetSystemInfo  = "get_system_info"
	ToolRunCommand     = "run_command"
	ToolReadClipboard  = "read_clipboard"
	ToolWriteClipboard = "write_clipboard"
)

// Safety classifies whether a tool may run without user confirmation. The
// classification is fixed per tool name and never derived from arguments or
// output.
type Safety int

const (
	// SafetySafe tools auto-execute when the session allows safe tools
	SafetySafe Safety = iota
	// SafetyDangerous tools require explicit approval
	SafetyDangerous
)

func (s Safety) String() string {
	if s == SafetySafe {
		return "safe"
	}
	return "dangerous"
}

// MarshalText lets Safety serialize as its string form in event payloads.
func (s Safety) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var safetyByName = map[string]Safety{
	ToolReadFile:       SafetySafe,
	ToolListDirectory:  SafetySafe,
	ToolSearchFiles:    SafetySafe,
	ToolGetSystemInfo:  SafetySafe,
	ToolWriteFile:      SafetyDangerous,
	ToolDeleteFile:     SafetyDangerous,
	ToolRunCommand:     SafetyDangerous,
	ToolReadClipboard:  SafetyDangerous,
	ToolWriteClipboard: SafetyDangerous,
}

// SafetyOf returns the classification for a tool name. Unknown names are
// Dangerous.
func SafetyOf(name string) Safety {
	if s, ok := safetyByName[name]; ok {
		return s
	}
	return SafetyDangerous
}

// IsBuiltin reports whether name is one of the built-in tools.
func IsBuiltin(name string) bool {
	_, ok := safetyByName[name]
	return ok
}

// Definition is a tool schema in OpenAI function-calling format.
type Definition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition carries the name, description and JSON-schema
// parameters of one tool.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func pathOnlySchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"path"},
	}
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
		"required":   []string{},
	}
}

// Definitions returns the schemas of every built-in tool, in the order they
// are presented to the model.
func Definitions() []Definition {
	return []Definition{
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolReadFile,
				Description: "Read the contents of a file. Returns the file content as text.",
				Parameters:  pathOnlySchema("Absolute path to the file to read"),
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolWriteFile,
				Description: "Write content to a file. Creates the file if it doesn't exist, overwrites if it does.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"path": map[string]interface{}{
							"type":        "string",
							"description": "Absolute path to the file to write",
						},
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Content to write to the file",
						},
					},
					"required": []string{"path", "content"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolListDirectory,
				Description: "List the contents of a directory. Returns file and directory names with basic info.",
				Parameters:  pathOnlySchema("Absolute path to the directory to list"),
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolSearchFiles,
				Description: "Search for files by name pattern in a directory. Returns matching file paths.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"directory": map[string]interface{}{
							"type":        "string",
							"description": "Directory to search in",
						},
						"pattern": map[string]interface{}{
							"type":        "string",
							"description": "Filename pattern to search for (supports * wildcard)",
						},
					},
					"required": []string{"directory", "pattern"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolDeleteFile,
				Description: "Delete a file. Use with caution.",
				Parameters:  pathOnlySchema("Absolute path to the file to delete"),
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolGetSystemInfo,
				Description: "Get system information including CPU usage and memory usage.",
				Parameters:  emptySchema(),
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolRunCommand,
				Description: "Execute a shell command and return its output. Use with caution.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"command": map[string]interface{}{
							"type":        "string",
							"description": "The shell command to execute",
						},
					},
					"required": []string{"command"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolReadClipboard,
				Description: "Read the current contents of the system clipboard.",
				Parameters:  emptySchema(),
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        ToolWriteClipboard,
				Description: "Write text to the system clipboard.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Text to write to the clipboard",
						},
					},
					"required": []string{"content"},
				},
			},
		},
	}
}

// Info pairs a tool definition with its safety classification for display
// surfaces.
type Info struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Safety      Safety     `json:"safety"`
	Definition  Definition `json:"definition"`
}

// Catalog returns every built-in tool with its safety classification.
func Catalog() []Info {
	defs := Definitions()
	infos := make([]Info, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, Info{
			Name:        def.Function.Name,
			Description: def.Function.Description,
			Safety:      SafetyOf(def.Function.Name),
			Definition:  def,
		})
	}
	return infos
}

// functionCallingModels is the fixed allow-list of model IDs known to
// support tool calling.
var functionCallingModels = map[string]struct{}{
	// OpenAI
	"openai/gpt-4o":        {},
	"openai/gpt-4o-mini":   {},
	"openai/gpt-4-turbo":   {},
	"openai/gpt-4":         {},
	"openai/gpt-4.1":       {},
	"openai/gpt-4.1-mini":  {},
	"openai/gpt-3.5-turbo": {},
	// Anthropic (via OpenRouter)
	"anthropic/claude-3-opus":     {},
	"anthropic/claude-3-sonnet":   {},
	"anthropic/claude-3-haiku":    {},
	"anthropic/claude-3.7-sonnet": {},
	"anthropic/claude-sonnet-4":   {},
	"anthropic/claude-opus-4":     {},
	// Google
	"google/gemini-2.5-pro":       {},
	"google/gemini-2.5-flash":     {},
	"google/gemini-2.0-flash-001": {},
	// Mistral
	"mistralai/mistral-large":    {},
	"mistralai/mistral-medium-3": {},
	"mistralai/mistral-small":    {},
}

// ModelSupportsTools reports whether a model id is on the function-calling
// allow-list.
func ModelSupportsTools(modelID string) bool {
	_, ok := functionCallingModels[modelID]
	return ok
}
