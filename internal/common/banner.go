package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("CERTEXTRACT")
	b.PrintCenteredText("Compliance Certificate Extraction Pipeline")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 20)
	b.PrintKeyValue("Build", build, 20)
	b.PrintKeyValue("Environment", config.Environment, 20)
	b.PrintKeyValue("Default provider", string(config.LLM.DefaultProvider), 20)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", config.Environment).
		Str("llmDefaultProvider", string(config.LLM.DefaultProvider)).
		Msg("certextract started")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

// printCapabilities displays which extraction providers are configured.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Configured providers:\n")

	enabled := []string{}
	if config.Gemini.APIKey != "" {
		fmt.Printf("   - Gemini (text, vision, document intelligence): %s\n", config.Gemini.Model)
		enabled = append(enabled, "gemini")
	}
	if config.Claude.APIKey != "" {
		fmt.Printf("   - Claude (text, vision): %s\n", config.Claude.Model)
		enabled = append(enabled, "claude")
	}
	if config.Extraction.TesseractPath != "" {
		fmt.Printf("   - Tesseract OCR: %s\n", config.Extraction.TesseractPath)
		enabled = append(enabled, "tesseract")
	} else {
		fmt.Printf("   - Tesseract OCR (from $PATH)\n")
		enabled = append(enabled, "tesseract")
	}
	if len(enabled) == 0 {
		fmt.Printf("   - No AI providers configured; AI-backed tiers will stay escalated/skipped\n")
	}

	logger.Info().
		Strs("enabledProviders", enabled).
		Str("settingsStore", config.Storage.Badger.SettingsPath).
		Str("auditStore", config.Storage.Badger.AuditPath).
		Msg("provider capabilities")
}

// PrintShutdownBanner displays the application shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("CERTEXTRACT")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("certextract shutting down")
}

// PrintColorizedMessage prints a message with the given color. It does not
// log the message; the logger argument is unused.
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it.
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("- %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it.
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("! %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it.
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("~ %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it.
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("i %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
