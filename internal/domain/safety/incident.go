package safety

import "time"

// IncidentType names a recorded safety incident.
type IncidentType string

const (
	IncidentNoShow IncidentType = "no_show"
)

// Incident is a row in the `safety_incidents` table.
type Incident struct {
	ID        string
	UserID    string
	BookingID string
	RoleType  string // driver | rider
	Type      IncidentType
	CreatedAt time.Time
}

// CheckType names one of the independent pre-creation ride checks.
type CheckType string

const (
	CheckTimeRestriction    CheckType = "time_restriction"
	CheckDriverSafety       CheckType = "driver_safety"
	CheckLocationSafety     CheckType = "location_safety"
	CheckSuspiciousPatterns CheckType = "suspicious_patterns"
)

// Check is one validation result inside a safety report.
type Check struct {
	Type    CheckType      `json:"type"`
	Safe    bool           `json:"safe"`
	Warning string         `json:"warning,omitempty"`
	Details map[string]any `json:"details"`
}

// Report aggregates the four independent checks; IsSafe is their AND.
type Report struct {
	IsSafe          bool     `json:"is_safe"`
	Checks          []Check  `json:"validations"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// Remediation text for each failed check type, fixed mapping.
var Recommendations = map[CheckType]string{
	CheckTimeRestriction:    "Schedule rides during operating hours (6 AM - 10 PM)",
	CheckDriverSafety:       "Ensure driver has verified university email and good rating",
	CheckLocationSafety:     "Choose safe pickup and dropoff locations",
	CheckSuspiciousPatterns: "Review account activity and address any concerns",
}

// BuildReport folds checks into a report with warnings and remediation
// texts for every failed check.
func BuildReport(checks []Check) Report {
	report := Report{IsSafe: true, Checks: checks}
	for _, c := range checks {
		if c.Safe {
			continue
		}
		report.IsSafe = false
		if c.Warning != "" {
			report.Warnings = append(report.Warnings, c.Warning)
		}
		if rec, ok := Recommendations[c.Type]; ok {
			report.Recommendations = append(report.Recommendations, rec)
		}
	}
	return report
}
