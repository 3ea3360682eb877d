package render

// Request describes a single render call: the negotiated format plus the
// caller-supplied locals. Requests are transient; the renderer never retains
// them past the call.
type Request struct {
	// Format selects which of the view's declared templates applies. Required;
	// an empty format fails with *MissingFormatError.
	Format string

	// Locals supplies named values merged with the view's declared params.
	Locals map[string]any

	// Layout overrides the layout chain for this call. Empty means use the
	// view's (or the config's) declaration.
	Layout string

	// DisableLayout forces a bare body render regardless of declarations.
	DisableLayout bool
}
