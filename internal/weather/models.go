package weather

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Condition is one of the fixed weather conditions the renderer has icons for.
type Condition string

const (
	ConditionSunny        Condition = "Sunny"
	ConditionCloudy       Condition = "Cloudy"
	ConditionPartlyCloudy Condition = "Partly Cloudy"
	ConditionRain         Condition = "Rain"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionWindy        Condition = "Windy"
)

// Conditions lists every valid Condition.
var Conditions = []Condition{
	ConditionSunny,
	ConditionCloudy,
	ConditionPartlyCloudy,
	ConditionRain,
	ConditionSnow,
	ConditionThunderstorm,
	ConditionWindy,
}

// Valid reports whether c is one of Conditions.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// TemperatureUnit is the unit of every temperature in a forecast.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "Celsius"
	Fahrenheit TemperatureUnit = "Fahrenheit"
)

// Symbol returns the short unit suffix.
func (u TemperatureUnit) Symbol() string {
	if u == Celsius {
		return "C"
	}
	return "F"
}

// CurrentWeather describes conditions right now.
type CurrentWeather struct {
	City            string          `json:"city" validate:"required"`
	Temperature     *float64        `json:"temperature" validate:"required"`
	TemperatureUnit TemperatureUnit `json:"temperatureUnit" validate:"required,oneof=Celsius Fahrenheit"`
	Conditions      Condition       `json:"conditions" validate:"required,condition"`
}

// DayForecast is one day of the outlook.
type DayForecast struct {
	Day        string    `json:"day" validate:"required"`
	High       *float64  `json:"high" validate:"required"`
	Low        *float64  `json:"low" validate:"required"`
	Conditions Condition `json:"conditions" validate:"required,condition"`
}

// Forecast is the typed view of a forecast object.
// DailyForecast holds exactly the days the model returned, in order.
type Forecast struct {
	CurrentWeather     CurrentWeather `json:"currentWeather"`
	DailyForecast      []DayForecast  `json:"dailyForecast" validate:"required,dive"`
	ClothingSuggestion string         `json:"clothingSuggestion" validate:"required"`
	ActivitySuggestion string         `json:"activitySuggestion" validate:"required"`
}

// Result is a forecast object exactly as the proxy returned it.
type Result map[string]any

// City returns currentWeather.city, or "" when absent.
func (r Result) City() string {
	current, ok := r["currentWeather"].(map[string]any)
	if !ok {
		return ""
	}
	city, _ := current["city"].(string)
	return city
}

// Decode converts the raw object into the typed view without validating it.
func (r Result) Decode() (Forecast, error) {
	var f Forecast
	raw, err := json.Marshal(r)
	if err != nil {
		return f, fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("decode forecast: %w", err)
	}
	return f, nil
}

// RegisterValidations adds the "condition" tag used by Forecast.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return Condition(fl.Field().String()).Valid()
	})
}

// NewValidator returns a validator that understands forecast tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
