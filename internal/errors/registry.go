package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Table Errors (W101-W199)
	// ============================================

	"W101": {
		Category:   CategoryRouting,
		Message:    "Invalid route pattern",
		Detail:     "Patterns are absolute paths of literal segments, :param segments and at most one trailing *wildcard.",
		Suggestion: "Write the pattern as /users/:id or /files/*path",
		DocURL:     "https://waypoint.vango.dev/errors/W101",
	},
	"W102": {
		Category:   CategoryRouting,
		Message:    "Duplicate route name",
		Detail:     "Route names are used for named navigation and must be unique within a table.",
		Suggestion: "Rename one of the routes or drop its name",
		DocURL:     "https://waypoint.vango.dev/errors/W102",
	},
	"W103": {
		Category:   CategoryRouting,
		Message:    "Invalid redirect target",
		Detail:     "A static redirect must name an absolute in-app path.",
		Suggestion: "Start the redirect with \"/\"",
		DocURL:     "https://waypoint.vango.dev/errors/W103",
	},
	"W104": {
		Category: CategoryRouting,
		Message:  "Route redirects to itself",
		Detail:   "A route whose redirect resolves back to its own pattern would loop on every navigation.",
		DocURL:   "https://waypoint.vango.dev/errors/W104",
	},
	"W105": {
		Category:   CategoryRouting,
		Message:    "Route has no view",
		Detail:     "Every route needs either a view to render or a redirect.",
		Suggestion: "Add a view or a redirect to the route",
		DocURL:     "https://waypoint.vango.dev/errors/W105",
	},
	"W106": {
		Category: CategoryRouting,
		Message:  "Invalid route name",
		Detail:   "Route names may not contain whitespace or '/'.",
		DocURL:   "https://waypoint.vango.dev/errors/W106",
	},
	"W107": {
		Category:   CategoryRouting,
		Message:    "Unknown route name",
		Detail:     "A named navigation referred to a route that is not in the table.",
		Suggestion: "Run `waypoint routes` to list the named routes",
		DocURL:     "https://waypoint.vango.dev/errors/W107",
	},
	"W108": {
		Category: CategoryRouting,
		Message:  "Missing route parameter",
		Detail:   "A named navigation did not supply every parameter of the route's pattern, and the active route had none to lend.",
		DocURL:   "https://waypoint.vango.dev/errors/W108",
	},

	// ============================================
	// Navigation Errors (W201-W299)
	// ============================================

	"W201": {
		Category:   CategoryNavigation,
		Message:    "Redirect loop",
		Detail:     "A navigation followed more redirects than the configured bound. The chain usually cycles between routes or guards.",
		Suggestion: "Check static redirects and guard redirects for a cycle, or raise maxRedirects",
		DocURL:     "https://waypoint.vango.dev/errors/W201",
	},
	"W202": {
		Category: CategoryNavigation,
		Message:  "Guard failed",
		Detail:   "A navigation guard returned an error or panicked. The navigation was abandoned and the active route is unchanged.",
		DocURL:   "https://waypoint.vango.dev/errors/W202",
	},
	"W203": {
		Category: CategoryNavigation,
		Message:  "History write failed",
		Detail:   "The history adapter could not record the navigation. The active route is unchanged.",
		DocURL:   "https://waypoint.vango.dev/errors/W203",
	},

	// ============================================
	// Manifest Errors (W301-W399)
	// ============================================

	"W301": {
		Category: CategoryManifest,
		Message:  "Route manifest could not be read",
		Detail:   "The manifest file or object could not be fetched.",
		DocURL:   "https://waypoint.vango.dev/errors/W301",
	},
	"W302": {
		Category:   CategoryManifest,
		Message:    "Route manifest could not be parsed",
		Detail:     "Manifests are JSON, YAML or TOML, selected by file extension. Unknown fields are rejected.",
		Suggestion: "Run `waypoint check` to see the offending field",
		DocURL:     "https://waypoint.vango.dev/errors/W302",
	},
	"W303": {
		Category: CategoryManifest,
		Message:  "Route manifest is invalid",
		Detail:   "The manifest parsed but its routes do not form a valid table.",
		DocURL:   "https://waypoint.vango.dev/errors/W303",
	},

	// ============================================
	// Protocol Errors (W401-W499)
	// ============================================

	"W401": {
		Category: CategoryProtocol,
		Message:  "Malformed message",
		Detail:   "A browser frame was not valid JSON or was missing a required field.",
		DocURL:   "https://waypoint.vango.dev/errors/W401",
	},
	"W402": {
		Category: CategoryProtocol,
		Message:  "Unexpected message",
		Detail:   "A browser frame was valid but not expected in the session's state.",
		DocURL:   "https://waypoint.vango.dev/errors/W402",
	},

	// ============================================
	// Config Errors (W501-W599)
	// ============================================

	"W501": {
		Category:   CategoryConfig,
		Message:    "Invalid waypoint.json",
		Detail:     "The configuration file could not be parsed.",
		Suggestion: "Check the JSON syntax near the marked position",
		DocURL:     "https://waypoint.vango.dev/errors/W501",
	},
	"W502": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field has a value waypoint cannot use.",
		DocURL:   "https://waypoint.vango.dev/errors/W502",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
