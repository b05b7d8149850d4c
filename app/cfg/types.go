package cfg

type Cfg struct {
	// Storage
	StoreBackend      string
	DatabaseURL       string
	DocumentStorePath string

	// Telegram channel source
	TelegramMode        string
	TelegramChannel     string
	TelegramBotToken    string
	TelegramAPIEndpoint string
	TelegramAppID       int
	TelegramAppHash     string
	TelegramSessionFile string
	TelegramFeedURL     string

	// Metadata provider
	OMDbAPIKey      string
	OMDbBaseURL     string
	MetadataTimeout int

	// Application configuration
	Port              string
	BaseUrl           string
	FetchLimit        int
	WorkerCount       int
	SchedulerInterval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	LogFile   string
	LogFormat string
	Version   string
}
