package exiftool

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// record mirrors one object of exiftool's -json output for the tags requested
// in batchArgs.
type record struct {
	SourceFile       string     `json:"SourceFile"`
	Error            string     `json:"Error"`
	Warning          string     `json:"Warning"`
	LensModel        flexString `json:"LensModel"`
	LensID           flexString `json:"LensID"`
	LensType         flexString `json:"LensType"`
	LensMake         flexString `json:"LensMake"`
	Make             flexString `json:"Make"`
	Model            flexString `json:"Model"`
	FocalLength      flexFloat  `json:"FocalLength"`
	FNumber          flexFloat  `json:"FNumber"`
	ScaleFactor35efl flexFloat  `json:"ScaleFactor35efl"`
	AspectRatio      flexString `json:"AspectRatio"`
}

// lensModel walks the lens tags in priority order. Olympus bodies write
// "None" for lenses without electronic contacts.
func (r record) lensModel() string {
	for _, candidate := range []flexString{r.LensModel, r.LensID, r.LensType} {
		value := strings.TrimSpace(string(candidate))
		if value == "" || strings.EqualFold(value, "none") || strings.HasPrefix(value, "Unknown") {
			continue
		}
		return value
	}
	return ""
}

// flexString accepts either a JSON string or a number; exiftool emits
// numeric-looking tag values unquoted.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexFloat accepts a JSON number or a string such as "12.0 mm". Unparseable
// values decode to zero, which validation then rejects.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexFloat(parseLeadingFloat(string(s)))
	return nil
}

func parseLeadingFloat(value string) float64 {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0
	}
	token := strings.TrimPrefix(fields[0], "f/")
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return v
}
