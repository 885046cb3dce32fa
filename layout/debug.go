package layout

import (
	"encoding/json"
	"os"
)

// MarshalDebug 将布局结果编码为缩进 JSON，条码符号本身不输出，只保留状态与内容。
func MarshalDebug(res *Result) ([]byte, error) {
	if res == nil {
		return []byte("null"), nil
	}
	return json.MarshalIndent(res, "", "  ")
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := MarshalDebug(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
