package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/i474232898/genie-weather/internal/weather"
)

// silentError exits non-zero without main printing anything further.
type silentError struct{}

func (silentError) Error() string { return "" }

var conditionIcons = map[weather.Condition]string{
	weather.ConditionSunny:        "☀️",
	weather.ConditionCloudy:       "☁️",
	weather.ConditionPartlyCloudy: "⛅",
	weather.ConditionRain:         "🌧️",
	weather.ConditionSnow:         "❄️",
	weather.ConditionThunderstorm: "⛈️",
	weather.ConditionWindy:        "💨",
}

func printSnapshot(w io.Writer, snap weather.Snapshot, asJSON bool) error {
	if snap.Err != nil {
		fmt.Fprintln(w, snap.Message)
		return silentError{}
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Result)
	}
	printForecast(w, snap.Result)
	return nil
}

func printForecast(w io.Writer, result weather.Result) {
	f, err := result.Decode()
	if err != nil {
		raw, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(w, string(raw))
		return
	}

	unit := f.CurrentWeather.TemperatureUnit.Symbol()
	cw := f.CurrentWeather
	fmt.Fprintf(w, "%s  %s %s  %s\n", cw.City, icon(cw.Conditions), degrees(cw.Temperature, unit), cw.Conditions)

	if len(f.DailyForecast) > 0 {
		headers := []string{"Day", "", "High", "Low", "Conditions"}
		rows := make([][]string, 0, len(f.DailyForecast))
		for _, d := range f.DailyForecast {
			rows = append(rows, []string{d.Day, icon(d.Conditions), degrees(d.High, unit), degrees(d.Low, unit), string(d.Conditions)})
		}
		fmt.Fprintln(w, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
	}

	fmt.Fprintf(w, "What to wear: %s\n", f.ClothingSuggestion)
	fmt.Fprintf(w, "What to do:   %s\n", f.ActivitySuggestion)
}

func icon(c weather.Condition) string {
	if s, ok := conditionIcons[c]; ok {
		return s
	}
	return "?"
}

func degrees(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 0, 64) + "°" + unit
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
