package punch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/bateponto/internal/config"
	"github.com/foxseedlab/bateponto/internal/discord"
	"github.com/foxseedlab/bateponto/internal/notifier"
	"github.com/foxseedlab/bateponto/internal/timeclock"
)

const (
	actionTimeout = 10 * time.Second
	notifyTimeout = 30 * time.Second
)

type Dispatcher interface {
	Handle(ctx context.Context, a timeclock.Action) (timeclock.Result, error)
}

// Handler turns Discord interactions into time clock actions and renders
// the outcome back to the member.
type Handler struct {
	guildID  string
	loc      *time.Location
	clock    Dispatcher
	discord  discord.Client
	notifier notifier.Notifier
	now      func() time.Time

	interactions  sync.WaitGroup
	notifications sync.WaitGroup
}

func NewHandler(cfg *config.Config, clock Dispatcher, dc discord.Client, n notifier.Notifier) *Handler {
	return &Handler{
		guildID:  cfg.DiscordGuildID,
		loc:      cfg.ReportLocation(),
		clock:    clock,
		discord:  dc,
		notifier: n,
		now:      time.Now,
	}
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{Name: commandPanel, Description: commandPanelDescription},
		{
			Name:        commandReport,
			Description: commandReportDescription,
			Options: []discord.SlashCommandOption{
				{Type: discord.SlashCommandOptionUser, Name: optionUser, Description: optionUserDescription, Required: true},
			},
			AdminOnly: true,
		},
		{Name: commandRanking, Description: commandRankingDescription, AdminOnly: true},
	}
}

func (h *Handler) HandleButton(event discord.ButtonEvent) {
	if !strings.HasPrefix(event.CustomID, buttonPrefix) {
		return
	}
	h.interactions.Add(1)
	defer h.interactions.Done()
	if event.GuildID != h.guildID {
		h.respond(event.Respond, ephemeral(messageWrongGuild), "custom_id", event.CustomID)
		return
	}
	kind, ok := buttonActions[event.CustomID]
	if !ok {
		slog.Warn("unknown button pressed", "custom_id", event.CustomID, "user_id", event.UserID)
		h.respond(event.Respond, ephemeral(messageUnknownButton), "custom_id", event.CustomID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	res, err := h.clock.Handle(ctx, timeclock.Action{Kind: kind, UserID: event.UserID, At: h.now()})
	if err != nil {
		h.respond(event.Respond, ephemeral(errorMessage(err)), "custom_id", event.CustomID, "user_id", event.UserID)
		return
	}
	h.respond(event.Respond, h.renderShiftResult(res), "custom_id", event.CustomID, "user_id", event.UserID)
	if res.End != nil {
		h.publishShiftCompleted(event.UserID, *res.End)
	}
}

var buttonActions = map[string]timeclock.ActionKind{
	buttonStart:  timeclock.ActionStart,
	buttonPause:  timeclock.ActionPause,
	buttonEnd:    timeclock.ActionEnd,
	buttonStatus: timeclock.ActionStatus,
}

func (h *Handler) HandleSlashCommand(event discord.SlashCommandEvent) {
	h.interactions.Add(1)
	defer h.interactions.Done()
	if event.GuildID != h.guildID {
		h.respond(event.Respond, ephemeral(messageWrongGuild), "command", event.CommandName)
		return
	}
	switch event.CommandName {
	case commandPanel:
		h.respond(event.Respond, panelResponse(h.now()), "command", event.CommandName)
	case commandReport:
		if !event.IsAdmin {
			h.respond(event.Respond, ephemeral(messageAdminOnly), "command", event.CommandName)
			return
		}
		target := event.Options[optionUser]
		if target == "" {
			h.respond(event.Respond, ephemeral(messageReportUsage), "command", event.CommandName)
			return
		}
		h.replyReport(event, target)
	case commandRanking:
		if !event.IsAdmin {
			h.respond(event.Respond, ephemeral(messageAdminOnly), "command", event.CommandName)
			return
		}
		h.replyRanking(event)
	default:
		h.respond(event.Respond, ephemeral(messageUnknownCommand), "command", event.CommandName)
	}
}

// Wait blocks until in-flight interactions and the shift notifications they
// started have finished. Stop delivering events before calling it.
func (h *Handler) Wait() {
	h.interactions.Wait()
	h.notifications.Wait()
}

func (h *Handler) renderShiftResult(res timeclock.Result) discord.InteractionResponse {
	switch {
	case res.Start != nil:
		return ephemeral(messageStarted)
	case res.Pause != nil:
		if res.Pause.Signal == timeclock.PauseSignalPaused {
			return ephemeral(messagePaused)
		}
		return ephemeral(messageResumed)
	case res.End != nil:
		return discord.InteractionResponse{
			Embeds: []discord.Embed{{
				Title: endedTitle,
				Color: colorEnded,
				Fields: []discord.EmbedField{
					{Name: fieldWorked, Value: FormatHours(res.End.DurationHours), Inline: true},
					{Name: fieldPauses, Value: strconv.Itoa(res.End.PauseCount), Inline: true},
					{Name: fieldTotal, Value: FormatHours(res.End.TotalHours), Inline: true},
				},
				Timestamp: res.End.EndedAt,
			}},
			Ephemeral: true,
		}
	case res.Status != nil:
		return h.statusResponse(*res.Status)
	default:
		return ephemeral(messageUnknownFailure)
	}
}

func (h *Handler) statusResponse(st timeclock.Status) discord.InteractionResponse {
	embed := discord.Embed{Title: statusTitle, Color: colorStatus, Timestamp: h.now()}
	if st.StartedAt.IsZero() {
		embed.Description = statusIdle
		embed.Fields = []discord.EmbedField{
			{Name: fieldTotal, Value: FormatHours(st.TotalHours), Inline: true},
		}
		return discord.InteractionResponse{Embeds: []discord.Embed{embed}, Ephemeral: true}
	}
	state := stateWorking
	if st.PausedSince != nil {
		state = statePaused
	}
	embed.Fields = []discord.EmbedField{
		{Name: fieldState, Value: state, Inline: true},
		{Name: fieldStartedAt, Value: formatDateTime(st.StartedAt, h.loc), Inline: true},
		{Name: fieldWorked, Value: FormatDuration(st.Worked), Inline: true},
		{Name: fieldPauses, Value: strconv.Itoa(st.PauseCount), Inline: true},
		{Name: fieldTotal, Value: FormatHours(st.TotalHours), Inline: true},
	}
	return discord.InteractionResponse{Embeds: []discord.Embed{embed}, Ephemeral: true}
}

// replyReport answers /horas. Name lookups can take several REST calls, so
// the reply is deferred once the report itself is known.
func (h *Handler) replyReport(event discord.SlashCommandEvent, target string) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	res, err := h.clock.Handle(ctx, timeclock.Action{Kind: timeclock.ActionReport, UserID: target})
	if err != nil {
		h.respond(event.Respond, ephemeral(errorMessage(err)), "command", event.CommandName, "target_user_id", target)
		return
	}
	reply, ok := h.acknowledge(event)
	if !ok {
		return
	}
	name, ok := h.discord.ResolveUserName(ctx, h.guildID, target)
	if !ok {
		name = unknownReportUser
	}
	h.respond(reply, h.reportResponse(name, *res.Report), "command", event.CommandName, "target_user_id", target)
}

func (h *Handler) reportResponse(name string, rep timeclock.Report) discord.InteractionResponse {
	embed := discord.Embed{
		Title: fmt.Sprintf(reportTitleFormat, name),
		Color: colorReport,
		Fields: []discord.EmbedField{
			{Name: fieldReportTotal, Value: FormatHours(rep.TotalHours), Inline: true},
			{Name: fieldReportSessions, Value: strconv.Itoa(rep.SessionCount), Inline: true},
			{Name: fieldReportActive, Value: yesNo(rep.IsActive), Inline: true},
		},
		Timestamp: h.now(),
	}
	if len(rep.RecentSessions) > 0 {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  fieldReportRecent,
			Value: RecentSessionLines(rep.RecentSessions, h.loc),
		})
	}
	return discord.InteractionResponse{Embeds: []discord.Embed{embed}}
}

func (h *Handler) replyRanking(event discord.SlashCommandEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	res, err := h.clock.Handle(ctx, timeclock.Action{Kind: timeclock.ActionRanking})
	if err != nil {
		h.respond(event.Respond, ephemeral(errorMessage(err)), "command", event.CommandName)
		return
	}
	if len(res.Ranking) == 0 {
		h.respond(event.Respond, ephemeral(messageNoRanking), "command", event.CommandName)
		return
	}
	reply, ok := h.acknowledge(event)
	if !ok {
		return
	}
	lines := RankingLines(res.Ranking, func(userID string) string {
		if name, ok := h.discord.ResolveUserName(ctx, h.guildID, userID); ok {
			return name
		}
		return unknownRankingUser
	})
	h.respond(reply, discord.InteractionResponse{Embeds: []discord.Embed{{
		Title:       rankingTitle,
		Description: lines,
		Color:       colorReport,
		Timestamp:   h.now(),
	}}}, "command", event.CommandName)
}

// acknowledge defers the reply and returns the func that delivers the final
// response. Events without deferral support are answered directly.
func (h *Handler) acknowledge(event discord.SlashCommandEvent) (func(discord.InteractionResponse) error, bool) {
	if event.Defer == nil || event.Edit == nil {
		return event.Respond, true
	}
	if err := event.Defer(); err != nil {
		slog.Error("failed to defer interaction", "error", err, "command", event.CommandName, "user_id", event.UserID)
		return nil, false
	}
	return event.Edit, true
}

func panelResponse(now time.Time) discord.InteractionResponse {
	return discord.InteractionResponse{
		Embeds: []discord.Embed{{
			Title:       panelTitle,
			Description: panelDescription,
			Color:       colorPanel,
			Fields: []discord.EmbedField{
				{Name: "🟢 Iniciar", Value: "Começa um novo turno", Inline: true},
				{Name: "⏸️ Pausar", Value: "Pausa ou retoma o turno atual", Inline: true},
				{Name: "🔴 Finalizar", Value: "Termina o turno atual", Inline: true},
			},
			Footer:    panelFooter,
			Timestamp: now,
		}},
		Buttons: []discord.Button{
			{CustomID: buttonStart, Label: "Iniciar", Emoji: "🟢", Style: discord.ButtonStyleSuccess},
			{CustomID: buttonPause, Label: "Pausar", Emoji: "⏸️", Style: discord.ButtonStylePrimary},
			{CustomID: buttonEnd, Label: "Finalizar", Emoji: "🔴", Style: discord.ButtonStyleDanger},
			{CustomID: buttonStatus, Label: "Estado", Emoji: "📋", Style: discord.ButtonStyleSecondary},
		},
	}
}

func (h *Handler) publishShiftCompleted(userID string, end timeclock.EndResult) {
	event := notifier.ShiftCompletedEvent{
		UserID:        userID,
		SessionID:     end.SessionID,
		StartedAt:     end.StartedAt,
		EndedAt:       end.EndedAt,
		DurationHours: end.DurationHours,
		PauseCount:    end.PauseCount,
		TotalHours:    end.TotalHours,
	}
	h.notifications.Add(1)
	go func() {
		defer h.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.NotifyShiftCompleted(ctx, event); err != nil {
			slog.Warn("failed to publish shift completion", "error", err, "user_id", userID, "session_id", end.SessionID)
		}
	}()
}

func (h *Handler) respond(respond func(discord.InteractionResponse) error, resp discord.InteractionResponse, logArgs ...any) {
	if respond == nil {
		return
	}
	if err := respond(resp); err != nil {
		slog.Error("failed to respond to interaction", append([]any{"error", err}, logArgs...)...)
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, timeclock.ErrAlreadyActiveSession):
		return messageAlreadyActive
	case errors.Is(err, timeclock.ErrNoActiveSession):
		return messageNoActive
	case errors.Is(err, timeclock.ErrUnknownUser):
		return messageNoRecords
	case errors.Is(err, timeclock.ErrStorageUnavailable):
		return messageStorageFailed
	default:
		slog.Error("unexpected time clock error", "error", err)
		return messageUnknownFailure
	}
}

func ephemeral(content string) discord.InteractionResponse {
	return discord.InteractionResponse{Content: content, Ephemeral: true}
}
