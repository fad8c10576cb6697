// Package export provides report writers for the Mass Orchestrator's
// TargetAssessment output, in the formats an operator would hand off to
// other tooling (spec.md §6).
package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lanscope/upnprecon/internal/models"
)

// Exporter - интерфейс для экспорта результатов Mass Orchestrator.
type Exporter interface {
	Export(assessments []*models.TargetAssessment, filename string) error
}

// JSONExporter - экспорт в JSON
type JSONExporter struct{}

// Export экспортирует assessments в JSON файл
func (e *JSONExporter) Export(assessments []*models.TargetAssessment, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(assessments); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// CSVExporter - экспорт в CSV
type CSVExporter struct{}

// Export экспортирует assessments в CSV файл
func (e *CSVExporter) Export(assessments []*models.TargetAssessment, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{
		"IP", "Port", "FriendlyName", "Manufacturer", "ModelName",
		"MatchedProfile", "PrimaryProtocol", "PriorityScore", "Bucket", "SecurityFindings",
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, a := range assessments {
		profileName := ""
		if a.ProfileMatch.Profile != nil {
			profileName = a.ProfileMatch.Profile.Name
		}

		record := []string{
			a.Device.IP,
			fmt.Sprintf("%d", a.Device.Port),
			a.Device.FriendlyName,
			a.Device.Manufacturer,
			a.Device.ModelName,
			profileName,
			a.PrimaryProtocol,
			fmt.Sprintf("%d", a.PriorityScore),
			a.Bucket(),
			fmt.Sprintf("%d", len(a.SecurityFindings)),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}

// XMLExporter - экспорт в XML
type XMLExporter struct{}

// XMLAssessmentList - структура для XML экспорта
type XMLAssessmentList struct {
	XMLName     xml.Name                    `xml:"assessments"`
	Assessments []*models.TargetAssessment `xml:"assessment"`
}

// Export экспортирует assessments в XML файл
func (e *XMLExporter) Export(assessments []*models.TargetAssessment, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	file.WriteString(xml.Header)

	encoder := xml.NewEncoder(file)
	encoder.Indent("", "  ")

	list := XMLAssessmentList{Assessments: assessments}

	if err := encoder.Encode(list); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}

	return nil
}

// YAMLExporter - экспорт в YAML
type YAMLExporter struct{}

// Export экспортирует assessments в YAML файл
func (e *YAMLExporter) Export(assessments []*models.TargetAssessment, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	data, err := yaml.Marshal(assessments)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ExportToFile экспортирует assessments в указанный формат
func ExportToFile(assessments []*models.TargetAssessment, format string, filename string) error {
	var exporter Exporter

	switch format {
	case "json":
		exporter = &JSONExporter{}
	case "csv":
		exporter = &CSVExporter{}
	case "xml":
		exporter = &XMLExporter{}
	case "yaml", "yml":
		exporter = &YAMLExporter{}
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, csv, xml, yaml)", format)
	}

	return exporter.Export(assessments, filename)
}

// ExportToMultipleFormats экспортирует assessments в несколько форматов одновременно
func ExportToMultipleFormats(assessments []*models.TargetAssessment, baseFilename string, formats []string) error {
	for _, format := range formats {
		var ext string
		switch format {
		case "json":
			ext = ".json"
		case "csv":
			ext = ".csv"
		case "xml":
			ext = ".xml"
		case "yaml", "yml":
			ext = ".yaml"
		default:
			continue
		}

		filename := baseFilename + ext
		if err := ExportToFile(assessments, format, filename); err != nil {
			return fmt.Errorf("failed to export to %s: %w", format, err)
		}
	}

	return nil
}
