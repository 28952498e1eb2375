package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the engine.
type RenderOptions struct {
	// Action is the URL the rendered form posts to. Empty keeps the current
	// location.
	Action string
	// Method overrides the default POST. Renderers translate verbs browsers do
	// not submit (PUT/PATCH/DELETE) into POST plus a hidden _method input.
	Method string
	// Hidden fields are emitted alongside the visible schema, sorted by name.
	Hidden []HiddenField
	// Errors carries feedback from a failed save keyed by field name, see
	// MapErrorPayload. Keys naming no field surface as form-level messages.
	Errors map[string][]string
	// Subset restricts output to matching sections or fields.
	Subset Subset
	// Locale and Translator localise labels before rendering. OnMissing
	// decides what to show when a key has no translation.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}
