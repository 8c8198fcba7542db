package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或比对折行结果。
func WriteDebugJSON(cards []Card, path string) error {
	if cards == nil {
		return nil
	}
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
