package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ProfilesDir    string
	Port           string
	BaseUrl        string
	APIAccessKey   string
	MaxUploadBytes int64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
