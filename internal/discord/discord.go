package discord

import (
	"context"
	"time"
)

type ButtonStyle int

const (
	ButtonStylePrimary ButtonStyle = iota + 1
	ButtonStyleSecondary
	ButtonStyleSuccess
	ButtonStyleDanger
)

type Button struct {
	CustomID string
	Label    string
	Emoji    string
	Style    ButtonStyle
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
	Timestamp   time.Time
}

// InteractionResponse is a reply to a button press or slash command.
// Buttons are laid out in a single row.
type InteractionResponse struct {
	Content   string
	Embeds    []Embed
	Buttons   []Button
	Ephemeral bool
}

type SlashCommandOptionType int

const (
	SlashCommandOptionUser SlashCommandOptionType = iota + 1
)

type SlashCommandOption struct {
	Type        SlashCommandOptionType
	Name        string
	Description string
	Required    bool
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	Options     []SlashCommandOption
	// AdminOnly hides the command from members without Administrator.
	AdminOnly bool
}

type SlashCommandEvent struct {
	GuildID     string
	ChannelID   string
	CommandName string
	UserID      string
	IsAdmin     bool
	// Options maps option names to their values; user options carry the user id.
	Options map[string]string
	Respond func(InteractionResponse) error
	// Defer acknowledges the command with a public "thinking" reply. The final
	// reply then goes through Edit, which lifts the three-second deadline.
	Defer func() error
	Edit  func(InteractionResponse) error
}

type ButtonEvent struct {
	GuildID   string
	ChannelID string
	CustomID  string
	UserID    string
	Respond   func(InteractionResponse) error
}

type Presence struct {
	Status   string
	Activity string
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	RegisterButtonHandler(handler func(ButtonEvent))
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	UpdatePresence(p Presence) error
	// ResolveUserName returns a display name, or false when the user cannot be found.
	ResolveUserName(ctx context.Context, guildID, userID string) (string, bool)
	Run() error
}
