package scrape

import (
	"encoding/json"
	"fmt"
	"os"
)

// AddressSample is one seed address used to infer a district-wide schedule.
// The list is static input; this package never writes it.
type AddressSample struct {
	District    string `json:"stadtteil"`
	Street      string `json:"street"`
	Housenumber string `json:"number"`
}

// LoadSamples reads the address sample list. A missing file is not an
// error; it yields an empty list so the pass degrades to a no-op.
func LoadSamples(path string) ([]AddressSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []AddressSample{}, nil
		}
		return nil, fmt.Errorf("scrape: read address samples: %w", err)
	}

	var samples []AddressSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("scrape: parse address samples: %w", err)
	}
	return samples, nil
}
