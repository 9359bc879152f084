package streams

import "encoding/json"

// settingsJSON is the persisted form of UiSettings: a flat key to integer
// mapping. Pointer fields make absent keys detectable so they can keep
// their default-constructed value instead of failing the decode.
type settingsJSON struct {
	Function1   *int `json:"function1,omitempty"`
	Function2   *int `json:"function2,omitempty"`
	Alternate1  *int `json:"alternate1,omitempty"`
	Alternate2  *int `json:"alternate2,omitempty"`
	MonitorMode *int `json:"monitor_mode,omitempty"`
	Linked      *int `json:"linked,omitempty"`
}

// MarshalJSON encodes the settings as a flat key to integer mapping.
func (s UiSettings) MarshalJSON() ([]byte, error) {
	fn1 := int(s.Function[0])
	fn2 := int(s.Function[1])
	alt1 := boolToInt(s.Alternate[0])
	alt2 := boolToInt(s.Alternate[1])
	mon := int(s.MonitorMode)
	linked := boolToInt(s.Linked)

	return json.Marshal(settingsJSON{
		Function1:   &fn1,
		Function2:   &fn2,
		Alternate1:  &alt1,
		Alternate2:  &alt2,
		MonitorMode: &mon,
		Linked:      &linked,
	})
}

// UnmarshalJSON decodes the flat mapping. Missing keys leave the
// corresponding field at its default value.
func (s *UiSettings) UnmarshalJSON(data []byte) error {
	var raw settingsJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	*s = UiSettings{}

	if raw.Function1 != nil {
		s.Function[0] = Function(*raw.Function1)
	}

	if raw.Function2 != nil {
		s.Function[1] = Function(*raw.Function2)
	}

	if raw.Alternate1 != nil {
		s.Alternate[0] = *raw.Alternate1 != 0
	}

	if raw.Alternate2 != nil {
		s.Alternate[1] = *raw.Alternate2 != 0
	}

	if raw.MonitorMode != nil {
		s.MonitorMode = MonitorMode(*raw.MonitorMode)
	}

	if raw.Linked != nil {
		s.Linked = *raw.Linked != 0
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
