package attendance

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Status is the attendance status of one half-day.
// The zero value is Unset: nothing has been recorded for the period yet.
type Status uint8

const (
	Unset Status = iota
	Present
	Excused
	MedicalCertificate
	Unjustified
)

var (
	ErrInvalidStatus = errors.New("invalid attendance status")
	ErrInvalidPeriod = errors.New("invalid period")

	statusNames = [...]string{
		Unset:              "",
		Present:            "present",
		Excused:            "excused",
		MedicalCertificate: "medical",
		Unjustified:        "unjustified",
	}

	// single letter codes, as written in school registers
	statusCodes = [...]string{
		Unset:              "",
		Present:            "P",
		Excused:            "E",
		MedicalCertificate: "M",
		Unjustified:        "O",
	}

	statusLabels = [...]string{
		Unset:              "Motif non reçu",
		Present:            "Présent",
		Excused:            "Excusé",
		MedicalCertificate: "Certificat médical",
		Unjustified:        "Non excusé",
	}
)

// Statuses lists the whole vocabulary, Unset first.
var Statuses = []Status{Unset, Present, Excused, MedicalCertificate, Unjustified}

// ParseStatus accepts a status name ("excused") or its register code ("E"), case-insensitively.
// An empty string is Unset.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for i := range statusNames {
		if strings.EqualFold(s, statusNames[i]) || strings.EqualFold(s, statusCodes[i]) {
			return Status(i), nil
		}
	}
	return Unset, errors.Wrapf(ErrInvalidStatus, "%q", s)
}

func (s Status) Valid() bool { return int(s) < len(statusNames) }

func (s Status) String() string {
	if !s.Valid() {
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
	return statusNames[s]
}

// Code returns the register code of s.
func (s Status) Code() string {
	if !s.Valid() {
		return ""
	}
	return statusCodes[s]
}

// Label returns the human readable label of s.
func (s Status) Label() string {
	if !s.Valid() {
		return ""
	}
	return statusLabels[s]
}

// IsUnjustified reports whether s counts as an unjustified half-day.
// A half-day nobody justified counts against the student: Unset is unjustified too.
func (s Status) IsUnjustified() bool {
	return s == Unjustified || s == Unset
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidStatus
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Period is one of the two half-days of a school day.
type Period uint8

const (
	Morning Period = iota
	Afternoon
)

var periodNames = [...]string{Morning: "morning", Afternoon: "afternoon"}

// ParsePeriod accepts "morning" | "afternoon" and their french counterparts "matin" | "après-midi".
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "morning", "matin", "am":
		return Morning, nil
	case "afternoon", "après-midi", "apres-midi", "pm":
		return Afternoon, nil
	}
	return Morning, errors.Wrapf(ErrInvalidPeriod, "%q", s)
}

func (p Period) Valid() bool { return int(p) < len(periodNames) }

func (p Period) String() string {
	if !p.Valid() {
		return ""
	}
	return periodNames[p]
}

// Label returns the french label used in parent messages.
func (p Period) Label() string {
	if p == Afternoon {
		return "après-midi"
	}
	return "matin"
}

func (p Period) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, ErrInvalidPeriod
	}
	return []byte(periodNames[p]), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	pr, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = pr
	return nil
}
