// spots.go - Static spot table and caption parsing

package bot

import (
	"strings"
	"time"

	"github.com/tidewatch/poseidon/internal/forecast"
)

// Spots maps lowercase spot names to coordinates for the direct
// forecast API. The table is deliberately static; unknown spots get a
// fixed refusal instead of a geocoding round trip.
var Spots = map[string]forecast.Coordinates{
	"pipeline":  {Lat: 21.6650, Lon: -158.0530},
	"mundaka":   {Lat: 43.4074, Lon: -2.6983},
	"nazare":    {Lat: 39.6036, Lon: -9.0852},
	"ericeira":  {Lat: 38.9631, Lon: -9.4170},
	"teahupoo":  {Lat: -17.8470, Lon: -149.2670},
	"uluwatu":   {Lat: -8.8156, Lon: 115.0862},
	"bells":     {Lat: -38.3684, Lon: 144.2828},
	"jeffreys":  {Lat: -34.0340, Lon: 24.9290},
	"hossegor":  {Lat: 43.6647, Lon: -1.4416},
	"trestles":  {Lat: 33.3822, Lon: -117.5886},
}

// LookupSpot resolves a spot name case-insensitively.
func LookupSpot(name string) (forecast.Coordinates, bool) {
	coords, ok := Spots[strings.ToLower(name)]
	return coords, ok
}

// dateLayouts are the accepted caption date formats, tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006"}

// ParseCaption splits an image caption by whitespace: first token is
// the spot name, second the date. A missing or unparseable date falls
// back to today.
func ParseCaption(caption string, now time.Time) (spotName string, date time.Time) {
	date = now
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return "", date
	}
	spotName = fields[0]
	if len(fields) < 2 {
		return spotName, date
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, fields[1]); err == nil {
			return spotName, parsed
		}
	}
	return spotName, date
}
