package export_test

import (
	"os"
	"time"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/pkg/export"
)

func sampleAssessments() []*models.TargetAssessment {
	now := time.Now()
	device := &models.Device{
		IP:              "192.168.1.50",
		Port:            1400,
		UDN:             "RINCON_000E5812345401400",
		FriendlyName:    "Living Room Sonos",
		Manufacturer:    "Sonos, Inc.",
		ModelName:       "Sonos One",
		DeviceType:      "urn:schemas-upnp-org:device:ZonePlayer:1",
		DiscoveryMethod: models.DiscoveryMethodSSDP,
		FirstSeen:       now,
		LastSeen:        now,
	}

	return []*models.TargetAssessment{
		{
			Device:          device,
			PrimaryProtocol: models.ProtocolUPnP,
			PriorityScore:   22,
		},
	}
}

// ExampleExportToFile демонстрирует экспорт отчета Mass Orchestrator в различные форматы
func ExampleExportToFile() {
	assessments := sampleAssessments()

	_ = export.ExportToFile(assessments, "json", "assessments.json")
	defer os.Remove("assessments.json")

	_ = export.ExportToFile(assessments, "csv", "assessments.csv")
	defer os.Remove("assessments.csv")

	_ = export.ExportToFile(assessments, "xml", "assessments.xml")
	defer os.Remove("assessments.xml")

	_ = export.ExportToFile(assessments, "yaml", "assessments.yaml")
	defer os.Remove("assessments.yaml")
}

// ExampleExportToMultipleFormats демонстрирует экспорт в несколько форматов одновременно
func ExampleExportToMultipleFormats() {
	assessments := sampleAssessments()

	formats := []string{"json", "csv", "xml", "yaml"}
	_ = export.ExportToMultipleFormats(assessments, "assessments", formats)

	for _, format := range formats {
		var ext string
		switch format {
		case "json":
			ext = ".json"
		case "csv":
			ext = ".csv"
		case "xml":
			ext = ".xml"
		case "yaml":
			ext = ".yaml"
		}
		os.Remove("assessments" + ext)
	}
}
