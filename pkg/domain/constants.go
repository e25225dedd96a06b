package domain

// CommandPhrase is the exact message content that starts a session.
const CommandPhrase = "!embed"

// Control and form identifiers issued by the session controller.
// The platform echoes these back on every interaction.
const (
	ControlSetTitle = "button_title"
	ControlAddField = "add_field"
	ControlDone     = "done"

	FormTitle = "modal_1"
	FormField = "modal_2"

	InputTitle        = "title"
	InputFieldName    = "field_title"
	InputFieldContent = "field_content"
)

// User-facing text.
const (
	TextPrompt   = "Create and embed with modals"
	TextEditing  = "Add fields to the"
	TextTimedOut = "Timed out"
)
