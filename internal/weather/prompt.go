package weather

import "fmt"

const promptSuffix = "Also, provide a brief suggestion for clothing and one for an activity. Respond in a valid JSON format."

// BuildPrompt renders the forecast question for a normalized location.
func BuildPrompt(loc Location) string {
	if loc.Coordinates != nil {
		return fmt.Sprintf(
			"What is the current weather and 5-day forecast for the location at latitude %s and longitude %s? %s",
			formatDegrees(loc.Coordinates.Latitude),
			formatDegrees(loc.Coordinates.Longitude),
			promptSuffix,
		)
	}
	return fmt.Sprintf("What is the current weather and 5-day forecast for %s? %s", loc.Name, promptSuffix)
}
