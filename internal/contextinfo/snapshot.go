package contextinfo

import (
	"fmt"
	"strings"
	"time"
)

// Seasons, Northern hemisphere
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// Weather is the portion of the snapshot that comes from the weather service
type Weather struct {
	Condition    string `json:"condition"`
	TemperatureC int    `json:"temperature_c"`
}

// Snapshot is the date, time, season, weather and special day at one moment
type Snapshot struct {
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	DayOfWeek   string   `json:"day_of_week"`
	Month       string   `json:"month"`
	Season      string   `json:"season"`
	Weather     *Weather `json:"weather,omitempty"`
	SpecialDate string   `json:"special_date,omitempty"`
}

// Compute derives the clock fields of a snapshot. It never sets weather.
func Compute(now time.Time, loc *time.Location) Snapshot {
	if loc != nil {
		now = now.In(loc)
	}
	return Snapshot{
		Date:        now.Format("January 2, 2006"),
		Time:        now.Format("03:04 PM"),
		DayOfWeek:   now.Weekday().String(),
		Month:       now.Month().String(),
		Season:      SeasonOf(now.Month()),
		SpecialDate: SpecialDateOn(now.Month(), now.Day()),
	}
}

// SeasonOf maps a month to its Northern hemisphere season
func SeasonOf(m time.Month) string {
	switch {
	case m >= time.March && m <= time.May:
		return SeasonSpring
	case m >= time.June && m <= time.August:
		return SeasonSummer
	case m >= time.September && m <= time.November:
		return SeasonAutumn
	}
	return SeasonWinter
}

// PromptBlock renders the CURRENT CONTEXT block of the assistant instruction
func (s Snapshot) PromptBlock() string {
	var b strings.Builder
	b.WriteString("CURRENT CONTEXT:\n")
	fmt.Fprintf(&b, "- Date: %s (%s)\n", s.Date, s.DayOfWeek)
	fmt.Fprintf(&b, "- Time: %s\n", s.Time)
	fmt.Fprintf(&b, "- Season: %s\n", s.Season)
	fmt.Fprintf(&b, "- Month: %s", s.Month)
	if s.SpecialDate != "" {
		fmt.Fprintf(&b, "\n- Special Date: %s (consider special menu items)", s.SpecialDate)
	}
	if s.Weather != nil {
		fmt.Fprintf(&b, "\n- Weather: %s, %d°C", s.Weather.Condition, s.Weather.TemperatureC)
	}
	return b.String()
}

// WeatherLabel is the header text for the weather, empty when unknown
func (s Snapshot) WeatherLabel() string {
	if s.Weather == nil {
		return ""
	}
	return fmt.Sprintf("%s %s %d°C", WeatherEmoji(s.Weather.Condition), s.Weather.Condition, s.Weather.TemperatureC)
}

// WeatherEmoji picks a display glyph for a weather condition
func WeatherEmoji(condition string) string {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "rain"), strings.Contains(c, "drizzle"):
		return "🌧️"
	case strings.Contains(c, "snow"):
		return "❄️"
	case strings.Contains(c, "cloud"):
		return "☁️"
	case strings.Contains(c, "sun"), strings.Contains(c, "clear"):
		return "☀️"
	case strings.Contains(c, "fog"), strings.Contains(c, "mist"):
		return "🌫️"
	case strings.Contains(c, "thunder"), strings.Contains(c, "storm"):
		return "⛈️"
	}
	return "🌤️"
}
