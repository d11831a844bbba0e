package config

import "github.com/caarlos0/env/v9"

type Config struct {
	BotToken  string `env:"BOT_TOKEN,required"`
	AdminPort string `env:"ADMIN_PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite or mysql
	DBPath     string `env:"DB_PATH" envDefault:"reactions.db"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/path/to/socket)
	DBName     string `env:"DB_NAME"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	LogMode string `env:"LOG_MODE" envDefault:"dev"`

	ShowSummaryButton          bool     `env:"SHOW_SUMMARY_BUTTON" envDefault:"true"`
	DisallowedReactions        []string `env:"DISALLOWED_REACTIONS" envSeparator:","`
	CustomTextReactionAllowed  bool     `env:"CUSTOM_TEXT_REACTION_ALLOWED" envDefault:"false"`
	AnonMessagesAllowed        bool     `env:"ANON_MESSAGES_ALLOWED" envDefault:"false"`
	AnonMsgPrefix              string   `env:"ANON_MSG_PREFIX"`
	DisplayRemoveRankingButton bool     `env:"DISPLAY_REMOVE_RANKING_BUTTON" envDefault:"false"`
	SilencedChats              []int64  `env:"SILENCED_CHATS" envSeparator:","`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Disallowed returns the configured block-set as a lookup map.
func (c *Config) Disallowed() map[string]struct{} {
	set := make(map[string]struct{}, len(c.DisallowedReactions))
	for _, r := range c.DisallowedReactions {
		set[r] = struct{}{}
	}
	return set
}

func (c *Config) IsSilenced(chatID int64) bool {
	for _, id := range c.SilencedChats {
		if id == chatID {
			return true
		}
	}
	return false
}
