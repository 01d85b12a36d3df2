package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kotae/internal/models"
)

// recordFile is the wrapped form of an import file: {records: [...]}.
type recordFile struct {
	Records []models.RecordInput `json:"records" yaml:"records"`
}

// LoadRecords reads record inputs from a JSON or YAML file. The file holds
// either a list of records or an object with a "records" list. Files ending
// in .json are decoded as JSON, everything else as YAML.
func LoadRecords(path string) ([]models.RecordInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	isList := data[0] == '[' || data[0] == '-'
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if isList {
			var list []models.RecordInput
			err = json.Unmarshal(data, &list)
			return list, wrapParse(path, err)
		}
		var f recordFile
		err = json.Unmarshal(data, &f)
		return f.Records, wrapParse(path, err)
	}

	if isList {
		var list []models.RecordInput
		err = yaml.Unmarshal(data, &list)
		return list, wrapParse(path, err)
	}
	var f recordFile
	err = yaml.Unmarshal(data, &f)
	return f.Records, wrapParse(path, err)
}

func wrapParse(path string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to parse records file %s: %w", path, err)
	}
	return nil
}
