package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanscope/upnprecon/internal/models"
)

func TestDeriveServiceNameStripsVersionSuffix(t *testing.T) {
	cases := map[string]string{
		"urn:schemas-upnp-org:service:AVTransport:1":      "avtransport",
		"urn:schemas-upnp-org:service:RenderingControl:1": "renderingcontrol",
		"urn:schemas-upnp-org:service:WANIPConnection:2":  "wanipconnection",
		"AVTransport":                                     "avtransport",
	}
	for in, want := range cases {
		assert.Equal(t, want, deriveServiceName(in))
	}
}

func TestSummarizeAggregatesCategoriesComplexitiesAndSecurityFindings(t *testing.T) {
	profiles := []ServiceProfile{
		{
			ServiceName: "avtransport",
			SCPD: &models.SCPDDocument{
				Actions: map[string]*models.SoapAction{
					"Play":            {Name: "Play", Category: models.CategoryMediaControl, Complexity: models.ComplexityEasy},
					"GetTransportInfo": {Name: "GetTransportInfo", Category: models.CategoryInformation, Complexity: models.ComplexityEasy},
				},
			},
		},
		{
			ServiceName: "wanipconnection",
			SCPD: &models.SCPDDocument{
				Actions: map[string]*models.SoapAction{
					"DeletePortMapping": {Name: "DeletePortMapping", Category: models.CategorySecurity, Complexity: models.ComplexityMedium},
				},
			},
		},
		{
			ServiceName: "deviceprotection",
			FetchError:  "scpd fetch returned status 404",
		},
	}

	summary := summarize(profiles)

	assert.Equal(t, 3, summary.TotalActions)
	assert.Equal(t, 1, summary.ByCategory[models.CategoryMediaControl])
	assert.Equal(t, 1, summary.ByCategory[models.CategoryInformation])
	assert.Equal(t, 1, summary.ByCategory[models.CategorySecurity])
	assert.Equal(t, 2, summary.ByComplexity[models.ComplexityEasy])
	assert.Equal(t, 1, summary.ByComplexity[models.ComplexityMedium])

	if assert.Len(t, summary.SecurityRelevant, 1) {
		assert.Equal(t, "DeletePortMapping", summary.SecurityRelevant[0].ActionName)
		assert.Equal(t, "wanipconnection", summary.SecurityRelevant[0].ServiceName)
	}
}
