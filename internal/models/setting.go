package models

import "strconv"

// SettingValue is the typed view of a system setting's string value.
// The backend stores every value as a string; "true" and "false" are
// booleans by convention and render as toggles.
type SettingValue interface {
	String() string
	isSettingValue()
}

type BoolSetting bool

type TextSetting string

func (b BoolSetting) String() string { return strconv.FormatBool(bool(b)) }
func (BoolSetting) isSettingValue()   {}

func (t TextSetting) String() string { return string(t) }
func (TextSetting) isSettingValue()   {}

// ParseSettingValue types a raw setting value. Only the exact strings
// "true" and "false" become booleans.
func ParseSettingValue(raw string) SettingValue {
	switch raw {
	case "true":
		return BoolSetting(true)
	case "false":
		return BoolSetting(false)
	default:
		return TextSetting(raw)
	}
}

// Toggle flips a boolean setting. Text settings are returned unchanged.
func Toggle(v SettingValue) SettingValue {
	if b, ok := v.(BoolSetting); ok {
		return !b
	}
	return v
}
