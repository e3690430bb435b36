// Package handler wires the slash commands to the workflow engine. It only
// parses arguments and formats Outcomes; all decisions live in the
// workflow package.
package handler

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/Euphemus333/arabot/internal/logger"
	"github.com/Euphemus333/arabot/internal/workflow"
)

// RegisterCommands attaches the interaction handler for the moderation
// commands
func RegisterCommands(session *discordgo.Session, engine *workflow.Engine) {
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}

		switch i.ApplicationCommandData().Name {
		case "restrict":
			handleRestrict(s, i, engine)
		case "unrestrict":
			handleUnrestrict(s, i, engine)
		}
	})
}

func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, option := range i.ApplicationCommandData().Options {
		options[option.Name] = option
	}
	return options
}

func moderatorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func deferReply(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

func editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		logger.Warningf("Could not edit interaction reply: %v", err)
	}
}

func handleRestrict(s *discordgo.Session, i *discordgo.InteractionCreate, engine *workflow.Engine) {
	options := commandOptions(i)

	userOption, ok := options["user"]
	if !ok {
		return
	}
	userID := userOption.UserValue(nil).ID

	reason := ""
	if reasonOption, ok := options["reason"]; ok {
		reason = reasonOption.StringValue()
	}

	tolerance := false
	if toleranceOption, ok := options["tolerance"]; ok {
		tolerance = toleranceOption.BoolValue()
	}

	if err := deferReply(s, i, true); err != nil {
		logger.Warningf("Could not defer restrict reply: %v", err)
		return
	}

	outcome, err := engine.Restrict(context.Background(), userID, moderatorID(i), reason, tolerance)
	if err != nil {
		logger.Errorf("Restrict failed for %s: %v", userID, err)
		if outcome.Message == "" {
			outcome.Message = "Something went wrong restricting the user, check the logs"
		}
	}

	editReply(s, i, outcome.Message)
}

func handleUnrestrict(s *discordgo.Session, i *discordgo.InteractionCreate, engine *workflow.Engine) {
	options := commandOptions(i)

	userOption, ok := options["user"]
	if !ok {
		return
	}
	userID := userOption.UserValue(nil).ID

	if err := deferReply(s, i, false); err != nil {
		logger.Warningf("Could not defer unrestrict reply: %v", err)
		return
	}

	outcome, err := engine.Unrestrict(context.Background(), userID, moderatorID(i), i.ChannelID)
	if err != nil {
		logger.Errorf("Unrestrict failed for %s: %v", userID, err)
		if outcome.Message == "" {
			outcome.Message = "Something went wrong unrestricting the user, check the logs"
		}
	}

	// The reply channel may have just been torn down with the user's
	// resource pair.
	if outcome.InvokedChannelRemoved {
		return
	}

	editReply(s, i, outcome.Message)
}
