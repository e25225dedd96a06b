package discord

import (
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/bwmarrin/discordgo"
)

func buttonStyle(s domain.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case domain.ButtonSecondary:
		return discordgo.SecondaryButton
	case domain.ButtonSuccess:
		return discordgo.SuccessButton
	case domain.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

func inputStyle(s domain.InputStyle) discordgo.TextInputStyle {
	if s == domain.InputParagraph {
		return discordgo.TextInputParagraph
	}
	return discordgo.TextInputShort
}

// components lays buttons out in a single action row. An empty list renders
// as an empty, non-nil slice so that Discord removes existing controls.
func components(buttons []domain.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			CustomID: b.ID,
			Label:    b.Label,
			Style:    buttonStyle(b.Style),
		})
	}
	return []discordgo.MessageComponent{row}
}

func embeds(e *domain.Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return []*discordgo.MessageEmbed{}
	}
	out := &discordgo.MessageEmbed{Title: e.Title}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return []*discordgo.MessageEmbed{out}
}

func messageSend(view domain.MessageView) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    view.Content,
		Embeds:     embeds(view.Embed),
		Components: components(view.Buttons),
	}
}

func messageEdit(ref domain.MessageRef, view domain.MessageView) *discordgo.MessageEdit {
	edit := discordgo.NewMessageEdit(ref.ChannelID, ref.MessageID)
	content := view.Content
	comps := components(view.Buttons)
	embs := embeds(view.Embed)
	edit.Content = &content
	edit.Components = &comps
	edit.Embeds = &embs
	return edit
}

func updateResponse(view domain.MessageView) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    view.Content,
			Embeds:     embeds(view.Embed),
			Components: components(view.Buttons),
		},
	}
}

// modalResponse puts each input in its own row, as Discord requires.
func modalResponse(form domain.Form) *discordgo.InteractionResponse {
	rows := make([]discordgo.MessageComponent, 0, len(form.Inputs))
	for _, in := range form.Inputs {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID: in.ID,
					Label:    in.Label,
					Style:    inputStyle(in.Style),
					Required: in.Required,
				},
			},
		})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   form.ID,
			Title:      form.Title,
			Components: rows,
		},
	}
}

// formValues extracts text input values in row order.
func formValues(data discordgo.ModalSubmitInteractionData) []string {
	var values []string
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if in, ok := inner.(*discordgo.TextInput); ok {
				values = append(values, in.Value)
			}
		}
	}
	return values
}
