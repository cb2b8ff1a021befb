package exiftool

import "fmt"

// dmsComponents splits an absolute decimal-degree value into degrees,
// minutes and centiseconds of arc, truncating rather than rounding so a
// coordinate never drifts past the original fix.
func dmsComponents(value float64) (deg, min, centisec int) {
	if value < 0 {
		value = -value
	}
	deg = int(value)
	min = int((value - float64(deg)) * 60)
	centisec = int(((value-float64(deg))*60 - float64(min)) * 60 * 100)
	return deg, min, centisec
}

// formatDMS renders a coordinate in the degrees,minutes,seconds form the
// tag writer accepts, e.g. "37,46,29.25".
func formatDMS(value float64) string {
	deg, min, centisec := dmsComponents(value)
	return fmt.Sprintf("%d,%d,%d.%02d", deg, min, centisec/100, centisec%100)
}

// latitudeRef returns the hemisphere designator for a signed latitude.
func latitudeRef(lat float64) string {
	if lat >= 0 {
		return "N"
	}
	return "S"
}

// longitudeRef returns the hemisphere designator for a signed longitude.
func longitudeRef(lon float64) string {
	if lon >= 0 {
		return "E"
	}
	return "W"
}
