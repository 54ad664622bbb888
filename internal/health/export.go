package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// 导出格式
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export 将报告序列化为 JSON 文件并返回写入路径。
// path 为空时按报告时间戳生成 health_report_<YYYYMMDD_HHMMSS>.json。
func Export(report *SystemHealthReport, path string) (string, error) {
	return ExportAs(report, path, FormatJSON)
}

// ExportAs 按指定格式（json/yaml）导出报告。
// 导出只读取报告，I/O 失败不影响内存中保留的最近报告。
func ExportAs(report *SystemHealthReport, path, format string) (string, error) {
	if report == nil {
		return "", fmt.Errorf("export: nil report")
	}

	var (
		data []byte
		err  error
		ext  string
	)
	switch format {
	case FormatYAML:
		ext = "yaml"
		data, err = yaml.Marshal(report)
	case FormatJSON, "":
		ext = "json"
		data, err = json.MarshalIndent(report, "", "  ")
	default:
		return "", fmt.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("export: marshal report: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("health_report_%s.%s", report.Timestamp.Format("20060102_150405"), ext)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("export: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("export: write report: %w", err)
	}
	return path, nil
}
