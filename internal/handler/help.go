package handler

import (
	"fmt"
	"strings"

	"github.com/mkowalczyk/reactions-bot/internal/config"
)

// helpText assembles the /help reply from the features enabled in the
// configuration plus the command registry.
func helpText(cfg *config.Config, commands []Command) string {
	type feature struct {
		text    string
		enabled bool
	}

	features := []feature{
		{"Reply to a message, or to the existing bot reply to this message with only emojis to react.", true},
		{"Reply with a single character to react with it.", true},
		{"To add a reaction with a custom text reply in the format of: !react <text>, or !r <text>", cfg.CustomTextReactionAllowed},
		{"To send an anonymous message with a custom text prefix it with: !anon <text>, or !a <text>", cfg.AnonMessagesAllowed},
		{fmt.Sprintf("Banned reactions are: %s, +n, -n (where n != 1).", strings.Join(cfg.DisallowedReactions, ", ")), len(cfg.DisallowedReactions) > 0},
		{"Reply with +1 to upvote or -1 to downvote.", true},
		{"Click on an already added reaction to also react with it.", true},
		{"If you have already reacted you can click on this reaction to remove it.", true},
		{"Click on the last reaction (ℹ️) to toggle reactions summary.", cfg.ShowSummaryButton},
	}

	var b strings.Builder
	b.WriteString("Features:\n")
	i := 0
	for _, f := range features {
		if !f.enabled {
			continue
		}
		i++
		fmt.Fprintf(&b, "%d. %s\n", i, f.text)
	}

	b.WriteString("\nSetup:\n")
	b.WriteString("1. Add the bot to the conversation.\n")
	b.WriteString("2. Give it admin permissions. You can limit its permissions to only delete messages.\n")

	b.WriteString("\nCommands:\n")
	for i, cmd := range commands {
		fmt.Fprintf(&b, "%d. /%s - %s\nUsage: %s\n", i+1, cmd.Name, cmd.Description, cmd.Usage)
	}
	return b.String()
}
