package domain

// ButtonStyle selects the visual weight of a button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Button is an interactive control attached to a message.
type Button struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Style ButtonStyle `json:"style"`
}

// InputStyle selects single-line or multi-line text entry.
type InputStyle int

const (
	InputShort InputStyle = iota + 1
	InputParagraph
)

// TextInput is one entry box of a Form.
type TextInput struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Style    InputStyle `json:"style"`
	Required bool       `json:"required"`
}

// Form is a pop-up of text inputs submitted atomically.
// Submitted values arrive in the order of Inputs.
type Form struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Inputs []TextInput `json:"inputs"`
}

// MessageView is the complete visible state of a bot message.
// Gateways replace the whole message with it: a nil Embed removes the embed and
// an empty Buttons slice removes every control.
type MessageView struct {
	Content string   `json:"content"`
	Embed   *Embed   `json:"embed,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

// MessageRef identifies a message on the platform.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}
