package domain

import "fmt"

var navStatusLabels = map[int]string{
	0:  "Under way using engine",
	1:  "At anchor",
	2:  "Not under command",
	3:  "Restricted maneuverability",
	4:  "Constrained by her draught",
	5:  "Moored",
	6:  "Aground",
	7:  "Engaged in fishing",
	8:  "Under way sailing",
	9:  "Reserved for HSC",
	10: "Reserved for WIG",
	11: "Reserved",
	12: "Reserved",
	13: "Reserved",
	14: "AIS-SART active",
	15: "Undefined",
}

// NavStatusLabel maps an AIS navigational status code to its label.
func NavStatusLabel(code int) string {
	if label, ok := navStatusLabels[code]; ok {
		return label
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// VesselTypeLabel maps an AIS ship-and-cargo type code to a coarse label.
func VesselTypeLabel(code int) string {
	switch {
	case code == 0:
		return "Not available"
	case code >= 1 && code <= 19:
		return "Reserved"
	case code >= 20 && code <= 29:
		return "Wing in ground"
	case code == 30:
		return "Fishing"
	case code == 31:
		return "Towing"
	case code == 32:
		return "Towing (large)"
	case code == 33:
		return "Dredging"
	case code == 34:
		return "Diving ops"
	case code == 35:
		return "Military ops"
	case code == 36:
		return "Sailing"
	case code == 37:
		return "Pleasure craft"
	case code >= 40 && code <= 49:
		return "High speed craft"
	case code == 50:
		return "Pilot vessel"
	case code == 51:
		return "Search and rescue"
	case code == 52:
		return "Tug"
	case code == 53:
		return "Port tender"
	case code == 54:
		return "Anti-pollution"
	case code == 55:
		return "Law enforcement"
	case code == 56 || code == 57:
		return "Spare"
	case code == 58:
		return "Medical transport"
	case code == 59:
		return "Noncombatant"
	case code >= 60 && code <= 69:
		return "Passenger"
	case code >= 70 && code <= 79:
		return "Cargo"
	case code >= 80 && code <= 89:
		return "Tanker"
	case code >= 90 && code <= 99:
		return "Other"
	default:
		return fmt.Sprintf("Unknown (%d)", code)
	}
}
