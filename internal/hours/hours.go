// Package hours decides whether the kiosk is open for delivery. The window is
// evaluated in the delivery staff's home time zone, never server-local time.
package hours

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const zoneName = "America/Chicago"

// Weekday open window, minutes since midnight, both endpoints inclusive.
const (
	weekdayOpen  = 17 * 60    // 17:00
	weekdayClose = 22*60 + 30 // 22:30
)

var deliveryZone *time.Location

func init() {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		panic(fmt.Sprintf("hours: load %s: %v", zoneName, err))
	}
	deliveryZone = loc
}

// Open reports whether immediate delivery is promised at t. Saturday and
// Sunday are open all day; Monday through Friday only within the evening
// window.
func Open(t time.Time) bool {
	lt := t.In(deliveryZone)
	switch lt.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	m := lt.Hour()*60 + lt.Minute()
	return m >= weekdayOpen && m <= weekdayClose
}

// OutsideDeliveryWindow is the companion used for the post-payment message,
// when the order was accepted but delivery will wait for the next window.
func OutsideDeliveryWindow(t time.Time) bool {
	return !Open(t)
}
