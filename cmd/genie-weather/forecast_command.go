package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/genie-weather/internal/weather"
)

const busyMessage = "The Genie is resting. Try again in a moment."

func newForecastCommand(ctx *commandContext) *cobra.Command {
	var lat, lon string
	var asJSON, interactive bool

	cmd := &cobra.Command{
		Use:   "forecast [city]",
		Short: "Fetch the current weather and a 5-day forecast",
		Long: "Fetch a forecast for a city, for --lat/--lon, or, with no location, for the last city\n" +
			"searched (falling back to GENIE_HOME_ADDRESS). --interactive reads one location per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := ctx.orchestrator(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if interactive {
				return runInteractive(cmd.Context(), o, cmd.InOrStdin(), out, asJSON)
			}

			loc, err := resolveLocation(cmd.Context(), o, args, lat, lon)
			if err != nil {
				return err
			}
			snap, err := o.Request(cmd.Context(), loc)
			if err != nil {
				return err
			}
			return printSnapshot(out, snap, asJSON)
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "Latitude in decimal degrees")
	cmd.Flags().StringVar(&lon, "lon", "", "Longitude in decimal degrees")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the forecast object as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Read locations from stdin until EOF or \"quit\"")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	return cmd
}

func resolveLocation(ctx context.Context, o *weather.Orchestrator, args []string, lat, lon string) (weather.Location, error) {
	if lat != "" || lon != "" {
		if len(args) > 0 {
			return weather.Location{}, errors.New("pass either a city or --lat/--lon, not both")
		}
		return weather.ParseCoordinates(lat, lon)
	}
	if len(args) > 0 {
		return weather.Named(strings.Join(args, " ")), nil
	}
	loc, ok, err := o.InitialLocation(ctx)
	if err != nil {
		return weather.Location{}, err
	}
	if !ok {
		return weather.Location{}, errors.New("no location: pass a city, --lat/--lon, or set GENIE_HOME_ADDRESS")
	}
	return loc, nil
}

// parseLocationInput reads "lat,lon" as coordinates and anything else as a place name.
func parseLocationInput(line string) weather.Location {
	if parts := strings.Split(line, ","); len(parts) == 2 {
		if loc, err := weather.ParseCoordinates(parts[0], parts[1]); err == nil {
			return loc
		}
	}
	return weather.Named(line)
}

func runInteractive(ctx context.Context, o *weather.Orchestrator, in io.Reader, out io.Writer, asJSON bool) error {
	request := func(loc weather.Location) error {
		snap, err := o.Request(ctx, loc)
		switch {
		case errors.Is(err, weather.ErrBusy):
			fmt.Fprintln(out, busyMessage)
			return nil
		case err != nil:
			return err
		}
		if err := printSnapshot(out, snap, asJSON); err != nil && !errors.As(err, new(silentError)) {
			return err
		}
		return nil
	}

	if loc, ok, err := o.InitialLocation(ctx); err == nil && ok {
		if err := request(loc); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "location> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		if err := request(parseLocationInput(line)); err != nil {
			return err
		}
	}
}
