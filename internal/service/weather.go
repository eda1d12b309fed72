package service

import "context"

// Weather is race-day conditions fed into the simulator.
type Weather struct {
	TempC       float64
	HumidityPct float64
}

// WeatherOracle supplies conditions for a location. Implementations may call
// out to a forecast API; failures are tolerated and replaced with defaults.
type WeatherOracle interface {
	Current(ctx context.Context, lat, lon float64) (Weather, error)
}

// StaticOracle always reports the same conditions. It is the default when no
// forecast source is configured.
type StaticOracle struct {
	Weather Weather
}

func (o StaticOracle) Current(_ context.Context, _, _ float64) (Weather, error) {
	return o.Weather, nil
}
