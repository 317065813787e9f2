package store

import "os"

// Secrets are credentials read from the environment, never from YAML.
type Secrets struct {
	FinnhubAPIKey    string
	OpenAIAPIKey     string
	ClaudeAPIKey     string
	TranslatorKey    string
	TranslatorRegion string
	RedisPassword    string
}

// LoadSecrets reads credentials from the process environment. Call
// godotenv.Load first to pick up a local .env file.
func LoadSecrets() Secrets {
	return Secrets{
		FinnhubAPIKey:    os.Getenv("FINNHUB_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		ClaudeAPIKey:     os.Getenv("CLAUDE_API_KEY"),
		TranslatorKey:    os.Getenv("AZURE_TRANSLATOR_KEY"),
		TranslatorRegion: os.Getenv("AZURE_TRANSLATOR_REGION"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
	}
}
