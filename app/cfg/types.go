package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Source feed
	FeedURL      string
	FallbackFile string

	// Published feed
	OutputFile      string
	FeedTitle       string
	FeedDescription string
	FeedLimit       int
	BaseUrl         string

	// Filtering
	FiltersConfig   string
	BlocklistPath   string
	BlocklistURL    string
	BlocklistMaxAge int

	// Classifier
	GeminiAPIKey string
	GeminiModel  string

	// Service
	Port              string
	SchedulerInterval int
	Timeout           int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string

	// Command and its parameters
	Command string
	Params  []string
}
