package config

type ChatConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetChatModel() string
}

type Chat struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL"`
	Model   string `env:"CHAT_MODEL" envDefault:"gpt-4.1-mini"`
}

var _ ChatConfig = Chat{}

func (c Chat) GetOpenAIAPIKey() string {
	return c.APIKey
}

func (c Chat) GetOpenAIBaseURL() string {
	return c.BaseURL
}

func (c Chat) GetChatModel() string {
	return c.Model
}
