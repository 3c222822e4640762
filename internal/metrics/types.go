// Package metrics receives web-vitals beacons from the front end and
// persists them. The sink is fire-and-forget: reporting must never
// affect the user experience, so every failure is swallowed after
// logging.
package metrics

// WebVital is one performance measurement reported by the browser.
// Value is a pointer so that a legitimate zero (a perfect CLS) survives
// the required check; JSON decoding already guarantees the number is
// finite.
type WebVital struct {
	Name   string   `json:"name" binding:"required,oneof=CLS FCP FID INP LCP TTFB"`
	Value  *float64 `json:"value" binding:"required"`
	ID     string   `json:"id" binding:"required,max=128"`
	Rating string   `json:"rating" binding:"omitempty,oneof=good needs-improvement poor"`
	Page   string   `json:"page" binding:"omitempty,max=512"`
}
