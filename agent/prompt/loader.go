package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/weather_extractor.txt
	weatherExtractorRaw string

	//go:embed template/stock_extractor.txt
	stockExtractorRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier       string
	WeatherExtractor string
	StockExtractor   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to call
// concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier:       strings.TrimSpace(classifierRaw),
		WeatherExtractor: strings.TrimSpace(weatherExtractorRaw),
		StockExtractor:   strings.TrimSpace(stockExtractorRaw),
	}
}
