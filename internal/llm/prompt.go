// Package llm holds the prompt contract shared by every analyst backend.
package llm

import "fmt"

// DefaultSystemPrompt frames the model as a beginner-friendly analyst.
const DefaultSystemPrompt = `You are a stock investment expert who can analyze market data and provide responses in multiple languages.
You explain market concepts in simple terms for beginners in their preferred language.
Your analysis should include:
1. Clear BULLISH, BEARISH, or NEUTRAL recommendation
2. Confidence percentage (1-100)
3. Detailed reasoning in the specified language
4. Expected next day's closing price
Focus on providing clear, actionable insights while maintaining accuracy.`

// UserPrompt embeds the payload and the answer contract. language is a
// display name such as "Korean".
func UserPrompt(payload []byte, language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(`Based on this stock data: %s
Analyze the data and provide your response in %s language.
Use the following JSON format:
{
    "decision": "BULLISH/BEARISH/NEUTRAL",
    "percentage": <number between 1-100>,
    "reason": "<your analysis in %s>",
    "expected_next_day_price": "<predicted price as string with 2 decimal places>"
}`, payload, language, language)
}
