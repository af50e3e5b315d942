package llm

import "google.golang.org/genai"

// SystemCommandFunction is the only function the remote model may call.
const SystemCommandFunction = "execute_system_command"

// SystemCommandDeclaration declares SystemCommandFunction to the model.
func SystemCommandDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        SystemCommandFunction,
		Description: "Executes an administrative system command on the host PC.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"command": {
					Type:        genai.TypeString,
					Description: "The type of command (e.g., OPEN_APP, FILE_SCAN, ADJUST_SETTING, SECURITY_LOCK).",
				},
				"target": {
					Type:        genai.TypeString,
					Description: `The target of the command (e.g., "Chrome", "System Core", "Brightness").`,
				},
				"value": {
					Type:        genai.TypeString,
					Description: "Optional value for settings adjustments.",
				},
			},
			Required: []string{"command", "target"},
		},
	}
}
