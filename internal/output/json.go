package output

import (
	"encoding/json"

	"github.com/numlens/numlens/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatResponse renders a check response as JSON.
func (f *JSONFormatter) FormatResponse(response *core.CheckResponse) (string, error) {
	if response == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(response, "", "  ")
	} else {
		data, err = json.Marshal(response)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
