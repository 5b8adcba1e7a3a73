package contextinfo

import "time"

type monthDay struct {
	month time.Month
	day   int
}

// Lunar holidays are approximated with fixed alternate dates.
var specialDates = map[monthDay]string{
	{time.January, 1}:    "New Year's Day",
	{time.January, 28}:   "Chinese New Year",
	{time.February, 10}:  "Chinese New Year",
	{time.April, 4}:      "Ching Ming Festival",
	{time.April, 5}:      "Ching Ming Festival",
	{time.May, 5}:        "Dragon Boat Festival",
	{time.June, 18}:      "Dragon Boat Festival",
	{time.August, 15}:    "Mid-Autumn Festival",
	{time.September, 29}: "Mid-Autumn Festival",
	{time.October, 1}:    "National Day",
	{time.December, 25}:  "Christmas",
	{time.December, 31}:  "New Year's Eve",
}

// SpecialDateOn returns the holiday on a month and day, or ""
func SpecialDateOn(m time.Month, day int) string {
	return specialDates[monthDay{m, day}]
}
