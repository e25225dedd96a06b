package session

import "github.com/aretw0/scribe/pkg/domain"

// PromptView is the opening message. The title button is shown only while the
// session waits for it.
func PromptView(withButton bool) domain.MessageView {
	view := domain.MessageView{Content: domain.TextPrompt, Buttons: []domain.Button{}}
	if withButton {
		view.Buttons = []domain.Button{
			{ID: domain.ControlSetTitle, Label: "Set the title", Style: domain.ButtonPrimary},
		}
	}
	return view
}

// EditingView renders the document with the edit-loop controls.
func EditingView(embed domain.Embed) domain.MessageView {
	return domain.MessageView{
		Content: domain.TextEditing,
		Embed:   &embed,
		Buttons: []domain.Button{
			{ID: domain.ControlAddField, Label: "Add Field", Style: domain.ButtonPrimary},
			{ID: domain.ControlDone, Label: "Done", Style: domain.ButtonSuccess},
		},
	}
}

// FinalView renders the finished document with no controls.
func FinalView(embed domain.Embed) domain.MessageView {
	return domain.MessageView{
		Content: "",
		Embed:   &embed,
		Buttons: []domain.Button{},
	}
}

// TitleForm asks for the embed title.
func TitleForm() domain.Form {
	return domain.Form{
		ID:    domain.FormTitle,
		Title: "Set the title for the embed",
		Inputs: []domain.TextInput{
			{ID: domain.InputTitle, Label: "Embed title", Style: domain.InputShort, Required: true},
		},
	}
}

// FieldForm asks for the name and content of a new field.
func FieldForm() domain.Form {
	return domain.Form{
		ID:    domain.FormField,
		Title: "Add a field to the embed",
		Inputs: []domain.TextInput{
			{ID: domain.InputFieldName, Label: "Field Title", Style: domain.InputShort, Required: true},
			{ID: domain.InputFieldContent, Label: "Field Content", Style: domain.InputParagraph, Required: true},
		},
	}
}
