package errors

import "slices"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Engine errors (G001-G019)

	"G001": {
		Category:   CategoryConnection,
		Message:    "Connection to the gate failed",
		Detail:     "The engine could not dial the gate, or the transport failed while sending or receiving.",
		Suggestion: "Check --addr and --network, and that the gate is listening",
	},
	"G002": {
		Category: CategoryConnection,
		Message:  "Connection closed",
		Detail:   "The gate ended the stream, or the engine was closed, while a request was pending.",
	},
	"G003": {
		Category:   CategoryProtocol,
		Message:    "Malformed message",
		Detail:     "An envelope or payload from the gate could not be decoded.",
		Suggestion: "Check that --ws-json matches the gate's WebSocket framing",
	},
	"G004": {
		Category:   CategorySession,
		Message:    "Request timed out",
		Detail:     "The gate did not answer within the configured wait.",
		Suggestion: "Raise --login-timeout or --request-timeout, or lower --clients",
	},
	"G005": {
		Category: CategorySession,
		Message:  "Operation not allowed in the current session phase",
		Detail:   "The engine refused the request before sending anything.",
	},
	"G006": {
		Category:   CategorySession,
		Message:    "Resume rejected",
		Detail:     "The gate does not know the session or the token does not match.",
		Suggestion: "Log in again to get a fresh session",
	},
	"G007": {
		Category: CategorySession,
		Message:  "Gate returned an error",
	},

	// Configuration errors (G020-G039)

	"G020": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Pass an existing file to --config",
	},
	"G021": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Detail:     "The file could not be parsed.",
		Suggestion: "Check the file for syntax errors",
	},
	"G022": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"G023": {
		Category:   CategoryConfig,
		Message:    "Unsupported config format",
		Detail:     "Config files must end in .json, .yaml or .yml.",
		Suggestion: "Rename the file or convert it to JSON or YAML",
	},

	// Report and CLI errors (G040-G059)

	"G040": {
		Category:   CategoryReport,
		Message:    "Report upload failed",
		Suggestion: "Check the bucket name, region and AWS credentials",
	},
	"G041": {
		Category: CategoryReport,
		Message:  "Report write failed",
	},
	"G050": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
	"G051": {
		Category:   CategoryCLI,
		Message:    "Listen failed",
		Suggestion: "Pick a free port or check that the address is valid",
	},
	"G052": {
		Category: CategoryCLI,
		Message:  "Load run failed",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
