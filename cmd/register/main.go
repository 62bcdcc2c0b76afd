// Command register performs one-shot registration of the bot's
// application commands. Run it once per application (or per guild with
// -guild for instant availability during development).
package main

import (
	"flag"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"invoicebot/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	guildID := flag.String("guild", "", "guild ID for guild-scoped registration (empty = global)")
	flag.Parse()

	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	appID := os.Getenv("DISCORD_APP_ID")
	if botToken == "" || appID == "" {
		log.Error("DISCORD_BOT_TOKEN and DISCORD_APP_ID are required")
		os.Exit(1)
	}

	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Error("discord session failed", "error", err)
		os.Exit(1)
	}

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "invoice",
			Description: "Enter invoice details in two stages",
		},
		{
			Name:        "invoice-quick",
			Description: "Enter invoice details in a single form",
		},
	}

	for _, cmd := range commands {
		created, err := session.ApplicationCommandCreate(appID, *guildID, cmd)
		if err != nil {
			log.Error("command registration failed", "command", cmd.Name, "error", err)
			os.Exit(1)
		}
		log.Info("command registered", "command", created.Name, "id", created.ID)
	}
}
