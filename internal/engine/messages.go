package engine

import "strings"

// Fixed texts appended to replies.
const (
	QuotaNotice       = "Note: the AI provider's quota is exhausted, so commands are now handled by the built-in command parser. Type \"help\" to see what it understands."
	UnavailableNotice = "Note: the AI provider is temporarily unavailable, so this command was handled by the built-in command parser."
	MalformedNotice   = "Note: the AI reply could not be understood, so this command was handled by the built-in command parser."
	BusyMessage       = "Still working on the previous command. Please wait a moment and try again."

	notConfiguredHint = "AI interpretation is not configured. Set GEMINI_API_KEY or OPENAI_API_KEY (or llm.api_key in ~/.tablechat/config.yaml) to use free-form requests."
	quotaHint         = "The AI provider quota is exhausted, so only the commands above are understood."
	configuredHint    = "You can also describe a change in your own words."
)

// Hint returns the provider-state line shown with help and guidance replies.
func Hint(s ProviderState) string {
	switch s {
	case Configured:
		return configuredHint
	case QuotaExceeded:
		return quotaHint
	default:
		return notConfiguredHint
	}
}

func appendLine(msg, line string) string {
	if msg == "" {
		return line
	}
	return msg + "\n\n" + line
}

// withQuotaNotice appends QuotaNotice unless msg already talks about quota.
func withQuotaNotice(msg string) string {
	if strings.Contains(strings.ToLower(msg), "quota") {
		return msg
	}
	return appendLine(msg, QuotaNotice)
}
