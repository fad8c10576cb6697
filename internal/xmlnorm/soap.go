package xmlnorm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lanscope/upnprecon/internal/models"
)

// ParseSOAPResponse разбирает тело SOAP-ответа на успешный вызов действия в
// плоскую карту out-аргументов, либо возвращает *models.ReconError с
// Kind=ErrSoapFault, если тело содержит <Fault> (spec.md §4.4, §7).
func ParseSOAPResponse(data []byte) (map[string]string, error) {
	root, err := parseStripped(data)
	if err != nil {
		return nil, &models.ReconError{Kind: models.ErrMalformedXml, Message: "soap response", Cause: err, Snippet: models.TruncateSnippet(data, 300)}
	}

	body := findSOAPBody(root)
	if body == nil {
		return nil, &models.ReconError{Kind: models.ErrMalformedXml, Message: "soap response missing Body", Snippet: models.TruncateSnippet(data, 300)}
	}

	if fault := body.child("Fault"); fault != nil {
		return nil, parseSOAPFault(fault, data)
	}

	if len(body.Children) == 0 {
		return map[string]string{}, nil
	}

	actionResponse := body.Children[0]
	out := make(map[string]string, len(actionResponse.Children))
	for _, child := range actionResponse.Children {
		out[child.Name] = child.text()
	}
	return out, nil
}

func findSOAPBody(root *stripNode) *stripNode {
	if strings.EqualFold(root.Name, "Body") {
		return root
	}
	if strings.EqualFold(root.Name, "Envelope") {
		return root.child("Body")
	}
	return nil
}

// parseSOAPFault extracts faultcode/faultstring and, when present, the
// UPnPError detail block (errorCode/errorDescription) per spec.md §7.
func parseSOAPFault(fault *stripNode, raw []byte) *models.ReconError {
	recErr := &models.ReconError{
		Kind:        models.ErrSoapFault,
		Message:     "soap fault",
		FaultCode:   fault.childText("faultcode"),
		FaultString: fault.childText("faultstring"),
		Snippet:     models.TruncateSnippet(raw, 300),
	}

	if detail := fault.child("detail"); detail != nil {
		if upnpErr := detail.child("UPnPError"); upnpErr != nil {
			if code := upnpErr.childText("errorCode"); code != "" {
				if n, err := strconv.Atoi(code); err == nil {
					recErr.UPnPCode = n
				}
			}
			if desc := upnpErr.childText("errorDescription"); desc != "" {
				recErr.Message = fmt.Sprintf("%s: %s", recErr.Message, desc)
			}
		}
	}

	return recErr
}
