package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/Euphemus333/arabot/internal/config"
)

// BotService wraps the Discord session
type BotService struct {
	Session *discordgo.Session
}

// Stop closes the Discord session
func (b *BotService) Stop() error {
	return b.Session.Close()
}

// Initialize opens the Discord session with the intents the workflows need
func Initialize(cfg *config.Config) (*BotService, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if cfg.Bot.GuildID == "" {
		return nil, fmt.Errorf("guild id is required")
	}

	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	// Members for role state, voice states for disconnects
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	log.Printf("Authorized on account %s", session.State.User.Username)

	return &BotService{Session: session}, nil
}

// RegisterCommands overwrites the guild's application commands with the
// moderation commands
func (b *BotService) RegisterCommands(cfg *config.Config) error {
	moderatePermission := int64(discordgo.PermissionModerateMembers)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "restrict",
			Description:              "Restricts a user",
			DefaultMemberPermissions: &moderatePermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to restrict",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for restricting the user",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "tolerance",
					Description: "Use the higher section pool",
				},
			},
		},
		{
			Name:                     "unrestrict",
			Description:              "Unrestricts a user",
			DefaultMemberPermissions: &moderatePermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to unrestrict",
					Required:    true,
				},
			},
		},
	}

	_, err := b.Session.ApplicationCommandBulkOverwrite(
		b.Session.State.User.ID, cfg.Bot.GuildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}
