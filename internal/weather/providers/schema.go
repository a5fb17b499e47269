package providers

import (
	"github.com/i474232898/genie-weather/internal/gemini"
	"github.com/i474232898/genie-weather/internal/weather"
)

// ForecastSchema is the responseSchema sent with every forecast generation.
func ForecastSchema() *gemini.Schema {
	conditions := make([]string, 0, len(weather.Conditions))
	for _, c := range weather.Conditions {
		conditions = append(conditions, string(c))
	}
	str := func() *gemini.Schema { return &gemini.Schema{Type: "STRING"} }
	num := func() *gemini.Schema { return &gemini.Schema{Type: "NUMBER"} }
	cond := func() *gemini.Schema { return &gemini.Schema{Type: "STRING", Enum: conditions} }

	return &gemini.Schema{
		Type: "OBJECT",
		Properties: map[string]*gemini.Schema{
			"currentWeather": {
				Type: "OBJECT",
				Properties: map[string]*gemini.Schema{
					"city":            str(),
					"temperature":     num(),
					"temperatureUnit": {Type: "STRING", Enum: []string{string(weather.Celsius), string(weather.Fahrenheit)}},
					"conditions":      cond(),
				},
				Required: []string{"city", "temperature", "temperatureUnit", "conditions"},
			},
			"dailyForecast": {
				Type: "ARRAY",
				Items: &gemini.Schema{
					Type: "OBJECT",
					Properties: map[string]*gemini.Schema{
						"day":        str(),
						"high":       num(),
						"low":        num(),
						"conditions": cond(),
					},
					Required: []string{"day", "high", "low", "conditions"},
				},
			},
			"clothingSuggestion": str(),
			"activitySuggestion": str(),
		},
		Required: []string{"currentWeather", "dailyForecast", "clothingSuggestion", "activitySuggestion"},
	}
}
