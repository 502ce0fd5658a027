package models

import (
	"encoding/json"
	"strings"
)

const (
	unknownCity = "Unknown"
	unknownCode = "---"
)

// Location is the structured form of the backend's combined
// "City (CODE)" strings used for flight origins and destinations.
type Location struct {
	City string
	Code string
}

// ParseLocation splits "London (LHR)" into city and code. A value
// without parentheses is treated as a bare city with an unknown code.
func ParseLocation(s string) Location {
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{City: unknownCity, Code: unknownCode}
	}
	open := strings.Index(s, "(")
	if open < 0 || !strings.Contains(s[open:], ")") {
		return Location{City: s, Code: unknownCode}
	}
	city := strings.TrimSpace(s[:open])
	code := strings.TrimSpace(strings.SplitN(s[open+1:], ")", 2)[0])
	if code == "" {
		code = unknownCode
	}
	return Location{City: city, Code: code}
}

// String renders the combined wire form. Unknown codes are omitted so a
// bare city survives a parse/format round trip.
func (l Location) String() string {
	if l.City == unknownCity && l.Code == unknownCode {
		return ""
	}
	if l.Code == "" || l.Code == unknownCode {
		return l.City
	}
	return l.City + " (" + l.Code + ")"
}

// Known reports whether the location carries an airport code.
func (l Location) Known() bool {
	return l.Code != "" && l.Code != unknownCode
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLocation(s)
	return nil
}
