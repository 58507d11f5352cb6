package domain

// CleaningStats tallies cleaning outcomes for a file, a source type or a run.
type CleaningStats struct {
	TotalRecords   int              `json:"total_records"`
	ValidRecords   int              `json:"valid_records"`
	WarningRecords int              `json:"warning_records"`
	ErrorRecords   int              `json:"error_records"`
	ErrorsByType   map[Category]int `json:"errors_by_type"`
	WarningsByType map[Category]int `json:"warnings_by_type"`
}

// NewCleaningStats returns zeroed stats with non-nil category maps.
func NewCleaningStats() CleaningStats {
	return CleaningStats{
		ErrorsByType:   map[Category]int{},
		WarningsByType: map[Category]int{},
	}
}

// Record counts one outcome: the total, the matching status counter, and each
// category the outcome carries.
func (s *CleaningStats) Record(o Outcome) {
	if s.ErrorsByType == nil {
		s.ErrorsByType = map[Category]int{}
	}
	if s.WarningsByType == nil {
		s.WarningsByType = map[Category]int{}
	}

	s.TotalRecords++
	switch o.Status {
	case StatusError:
		s.ErrorRecords++
	case StatusWarning:
		s.WarningRecords++
	default:
		s.ValidRecords++
	}

	for _, cat := range o.Categories {
		if cat.IsError() {
			s.ErrorsByType[cat]++
		} else {
			s.WarningsByType[cat]++
		}
	}
}

// Merge returns the sum of s and other. Neither operand is modified.
func (s CleaningStats) Merge(other CleaningStats) CleaningStats {
	out := CleaningStats{
		TotalRecords:   s.TotalRecords + other.TotalRecords,
		ValidRecords:   s.ValidRecords + other.ValidRecords,
		WarningRecords: s.WarningRecords + other.WarningRecords,
		ErrorRecords:   s.ErrorRecords + other.ErrorRecords,
		ErrorsByType:   make(map[Category]int, len(s.ErrorsByType)+len(other.ErrorsByType)),
		WarningsByType: make(map[Category]int, len(s.WarningsByType)+len(other.WarningsByType)),
	}
	for _, m := range []map[Category]int{s.ErrorsByType, other.ErrorsByType} {
		for k, v := range m {
			out.ErrorsByType[k] += v
		}
	}
	for _, m := range []map[Category]int{s.WarningsByType, other.WarningsByType} {
		for k, v := range m {
			out.WarningsByType[k] += v
		}
	}
	return out
}

// Reconciled reports whether total equals valid + warning + error.
func (s CleaningStats) Reconciled() bool {
	return s.TotalRecords == s.ValidRecords+s.WarningRecords+s.ErrorRecords
}

// Emitted returns the number of records retained (normal plus warning).
func (s CleaningStats) Emitted() int {
	return s.ValidRecords + s.WarningRecords
}
