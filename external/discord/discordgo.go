package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/bateponto/internal/discord"
)

var adminPermission = int64(discordgo.PermissionAdministrator)

type Client struct {
	session *discordgo.Session
	token   string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)
	return s.Open()
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) RegisterButtonHandler(handler func(discordpkg.ButtonEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionMessageComponent {
			return
		}
		data := ic.MessageComponentData()
		userID := interactionUserID(ic)
		if data.CustomID == "" || userID == "" {
			return
		}
		slog.Debug("button interaction received", "guild_id", ic.GuildID, "custom_id", data.CustomID, "user_id", userID)
		handler(discordpkg.ButtonEvent{
			GuildID:   ic.GuildID,
			ChannelID: ic.ChannelID,
			CustomID:  data.CustomID,
			UserID:    userID,
			Respond: func(resp discordpkg.InteractionResponse) error {
				return s.InteractionRespond(ic.Interaction, toInteractionResponse(resp))
			},
		})
	})
}

func (c *Client) RegisterSlashCommandHandler(handler func(discordpkg.SlashCommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		userID := interactionUserID(ic)
		if userID == "" {
			return
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", userID)
		handler(discordpkg.SlashCommandEvent{
			GuildID:     ic.GuildID,
			ChannelID:   ic.ChannelID,
			CommandName: data.Name,
			UserID:      userID,
			IsAdmin:     memberIsAdmin(ic.Member),
			Options:     commandOptions(data.Options),
			Respond: func(resp discordpkg.InteractionResponse) error {
				slog.Info("responding to slash interaction", "command", data.Name, "guild_id", ic.GuildID, "user_id", userID, "ephemeral", resp.Ephemeral)
				return s.InteractionRespond(ic.Interaction, toInteractionResponse(resp))
			},
			Defer: func() error {
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
				})
			},
			Edit: func(resp discordpkg.InteractionResponse) error {
				_, err := s.InteractionResponseEdit(ic.Interaction, toWebhookEdit(resp))
				return err
			},
		})
	})
}

func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

func memberIsAdmin(m *discordgo.Member) bool {
	return m != nil && m.Permissions&adminPermission != 0
}

func commandOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionUser:
			out[opt.Name] = opt.UserValue(nil).ID
		case discordgo.ApplicationCommandOptionString:
			out[opt.Name] = opt.StringValue()
		default:
			out[opt.Name] = fmt.Sprint(opt.Value)
		}
	}
	return out
}

func toInteractionResponse(resp discordpkg.InteractionResponse) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Content: resp.Content,
	}
	for _, e := range resp.Embeds {
		data.Embeds = append(data.Embeds, toMessageEmbed(e))
	}
	if len(resp.Buttons) > 0 {
		row := discordgo.ActionsRow{}
		for _, b := range resp.Buttons {
			row.Components = append(row.Components, toButton(b))
		}
		data.Components = []discordgo.MessageComponent{row}
	}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// toWebhookEdit replaces the deferred reply. Visibility was fixed when the
// reply was deferred, so resp.Ephemeral is ignored.
func toWebhookEdit(resp discordpkg.InteractionResponse) *discordgo.WebhookEdit {
	data := toInteractionResponse(resp).Data
	embeds := data.Embeds
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	components := data.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{
		Content:    &data.Content,
		Embeds:     &embeds,
		Components: &components,
	}
}

func toMessageEmbed(e discordpkg.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	return out
}

func toButton(b discordpkg.Button) discordgo.Button {
	out := discordgo.Button{
		CustomID: b.CustomID,
		Label:    b.Label,
		Style:    buttonStyle(b.Style),
	}
	if b.Emoji != "" {
		out.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
	}
	return out
}

func buttonStyle(s discordpkg.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case discordpkg.ButtonStyleSuccess:
		return discordgo.SuccessButton
	case discordpkg.ButtonStyleDanger:
		return discordgo.DangerButton
	case discordpkg.ButtonStyleSecondary:
		return discordgo.SecondaryButton
	default:
		return discordgo.PrimaryButton
	}
}

func (c *Client) UpsertGuildSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	existing, err := c.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		existingByName[cmd.Name] = cmd
	}
	for _, def := range defs {
		if err := c.upsertGuildSlashCommand(appID, guildID, def, existingByName); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertGuildSlashCommand(appID, guildID string, def discordpkg.SlashCommandDefinition, existingByName map[string]*discordgo.ApplicationCommand) error {
	if def.Name == "" {
		return nil
	}
	payload := toApplicationCommand(def)
	cmd, ok := existingByName[def.Name]
	if !ok {
		_, err := c.session.ApplicationCommandCreate(appID, guildID, payload)
		return err
	}
	if commandMatches(cmd, payload) {
		return nil
	}
	_, err := c.session.ApplicationCommandEdit(appID, guildID, cmd.ID, payload)
	return err
}

func toApplicationCommand(def discordpkg.SlashCommandDefinition) *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
	}
	for _, opt := range def.Options {
		cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
			Type:        optionType(opt.Type),
			Name:        opt.Name,
			Description: opt.Description,
			Required:    opt.Required,
		})
	}
	if def.AdminOnly {
		perm := adminPermission
		cmd.DefaultMemberPermissions = &perm
	}
	return cmd
}

func optionType(t discordpkg.SlashCommandOptionType) discordgo.ApplicationCommandOptionType {
	switch t {
	case discordpkg.SlashCommandOptionUser:
		return discordgo.ApplicationCommandOptionUser
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

func commandMatches(existing, want *discordgo.ApplicationCommand) bool {
	if existing.Description != want.Description {
		return false
	}
	if !slices.EqualFunc(existing.Options, want.Options, func(a, b *discordgo.ApplicationCommandOption) bool {
		return a.Name == b.Name && a.Type == b.Type && a.Description == b.Description && a.Required == b.Required
	}) {
		return false
	}
	switch {
	case existing.DefaultMemberPermissions == nil && want.DefaultMemberPermissions == nil:
		return true
	case existing.DefaultMemberPermissions == nil || want.DefaultMemberPermissions == nil:
		return false
	default:
		return *existing.DefaultMemberPermissions == *want.DefaultMemberPermissions
	}
}

func (c *Client) UpdatePresence(p discordpkg.Presence) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	data := discordgo.UpdateStatusData{Status: p.Status}
	if p.Activity != "" {
		data.Activities = []*discordgo.Activity{{Name: p.Activity, Type: discordgo.ActivityTypeGame}}
	}
	return c.session.UpdateStatusComplex(data)
}

// ResolveUserName prefers the guild nickname, then the global name, then the
// username. The state cache is consulted before REST.
func (c *Client) ResolveUserName(ctx context.Context, guildID, userID string) (string, bool) {
	_ = ctx
	if c.session == nil || userID == "" {
		return "", false
	}
	if member := c.resolveGuildMember(guildID, userID); member != nil {
		if member.Nick != "" {
			return member.Nick, true
		}
		if member.User != nil {
			if name := preferredDiscordName(member.User.GlobalName, member.User.Username); name != "" {
				return name, true
			}
		}
	}
	u, err := c.session.User(userID)
	if err != nil {
		if !isRESTNotFound(err) {
			slog.Warn("failed to fetch discord user", "error", err, "user_id", userID)
		}
		return "", false
	}
	if u == nil {
		return "", false
	}
	name := preferredDiscordName(u.GlobalName, u.Username)
	return name, name != ""
}

func (c *Client) resolveGuildMember(guildID, userID string) *discordgo.Member {
	if guildID == "" {
		return nil
	}
	if c.session.State != nil {
		member, err := c.session.State.Member(guildID, userID)
		if err == nil && member != nil {
			return member
		}
	}
	member, err := c.session.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return member
}

func preferredDiscordName(globalName, username string) string {
	if globalName != "" {
		return globalName
	}
	return username
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}

func (c *Client) Run() error {
	select {}
}
