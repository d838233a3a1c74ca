package models

// Grade is one of the twelve school grade levels
type Grade string

const (
	Grade1  Grade = "GRADE_1"
	Grade2  Grade = "GRADE_2"
	Grade3  Grade = "GRADE_3"
	Grade4  Grade = "GRADE_4"
	Grade5  Grade = "GRADE_5"
	Grade6  Grade = "GRADE_6"
	Grade7  Grade = "GRADE_7"
	Grade8  Grade = "GRADE_8"
	Grade9  Grade = "GRADE_9"
	Grade10 Grade = "GRADE_10"
	Grade11 Grade = "GRADE_11"
	Grade12 Grade = "GRADE_12"
)

// Curriculum is the education system an order is taught in
type Curriculum string

const (
	CurriculumCBSE       Curriculum = "CBSE"
	CurriculumICSE       Curriculum = "ICSE"
	CurriculumIGCSE      Curriculum = "IGCSE"
	CurriculumIB         Curriculum = "IB"
	CurriculumStateBoard Curriculum = "STATE_BOARD"
	CurriculumOther      Curriculum = "OTHER"
)

type SessionType string

const (
	SessionOnline  SessionType = "ONLINE"
	SessionOffline SessionType = "OFFLINE"
)

type PreferredTime string

const (
	PreferredWeekend  PreferredTime = "WEEKEND"
	PreferredWeekdays PreferredTime = "WEEKDAYS"
)

// Priority is informational only and never affects transitions
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether g is a known grade level
func (g Grade) Valid() bool {
	switch g {
	case Grade1, Grade2, Grade3, Grade4, Grade5, Grade6,
		Grade7, Grade8, Grade9, Grade10, Grade11, Grade12:
		return true
	}
	return false
}

func (c Curriculum) Valid() bool {
	switch c {
	case CurriculumCBSE, CurriculumICSE, CurriculumIGCSE, CurriculumIB, CurriculumStateBoard, CurriculumOther:
		return true
	}
	return false
}

func (s SessionType) Valid() bool {
	return s == SessionOnline || s == SessionOffline
}

func (p PreferredTime) Valid() bool {
	return p == PreferredWeekend || p == PreferredWeekdays
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
