package scheduler

import (
	"casal/src-server/gateway"
	"casal/src-server/model"
	"casal/src-server/utils"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Announce posts tomorrow's agenda to the association's Discord
// channel. It is a no-op when no token is configured.
func Announce(as *utils.AppState, gw gateway.Gateway) {
	token := as.Config.GetDiscordAppToken()
	if token == "" {
		return
	}

	dgSession, err := discordgo.New("Bot " + token)
	if err != nil {
		slog.Error("Announce: can't create discord session", "error", err)
		return
	}
	if err := dgSession.Open(); err != nil {
		slog.Error("Announce: can't open discord session", "error", err)
		return
	}
	defer dgSession.Close()

	channelID := as.Config.GetDiscordChannelID()
	announced := make(map[int64]struct{})
	gracefulShutdownCh := as.CreateGracefulShutdownChan()
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-*gracefulShutdownCh:
			return
		case <-ticker.C:
		}

		tomorrow := time.Now().In(as.Config.GetLocation()).AddDate(0, 0, 1)
		tomorrowKey := tomorrow.Format(model.DateLayout)

		events, err := gw.FetchByYear(context.Background(), tomorrow.Year(), gateway.VariantAll)
		if err != nil {
			slog.Error("Announce: can't get events", "error", err)
			continue
		}

		embeds := make([]*discordgo.MessageEmbed, 0)
		var announcedIDs []int64
		for _, ev := range events {
			if ev.StartDate != tomorrowKey {
				continue
			}
			if _, ok := announced[ev.ID]; ok {
				continue
			}
			embeds = append(embeds, toEmbed(ev))
			announcedIDs = append(announcedIDs, ev.ID)
		}
		if len(embeds) == 0 {
			continue
		}

		started := time.Now()
		if _, err := dgSession.ChannelMessageSendEmbeds(channelID, embeds); err != nil {
			slog.Error("Announce: can't send message", "error", err)
			continue
		}
		as.MetricChans.Announce(time.Since(started))

		for _, id := range announcedIDs {
			announced[id] = struct{}{}
		}
		slog.Info("announced tomorrow's events", "count", len(embeds), "day", tomorrowKey)
	}
}

func toEmbed(ev model.Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Description,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Date",
				Value:  ev.StartDate,
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("event %d", ev.ID),
		},
	}
	if ev.Time != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Time",
			Value:  ev.Time,
			Inline: true,
		})
	}
	if ev.Town != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Where",
			Value: ev.Town,
		})
	}
	if ev.RequiresRegistration {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Registration",
			Value: "Sign-up required",
		})
	}
	return embed
}
