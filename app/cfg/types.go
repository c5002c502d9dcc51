package cfg

type Command string

const (
	CommandServe   Command = "serve"
	CommandRun     Command = "run"
	CommandCleanup Command = "cleanup"
	CommandCheck   Command = "check"
)

type Cfg struct {
	// Storage and sources
	SourcesFile string
	DBPath      string

	// Telegram
	TelegramToken  string
	TelegramAPIURL string

	// HTTP server
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	LogFormat string
	LogFile   string
	Version   string

	// Selected subcommand
	Command  Command
	MarkSeen bool
}
