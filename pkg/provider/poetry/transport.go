package poetry

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/trerr"
)

// HTTPTransport speaks the legacy service's document-style SOAP. Every
// operation is one envelope with the session id and a JSON payload
// string; the service predates typed schemas and answers with a flat
// response element.
type HTTPTransport struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPTransport(endpoint string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Endpoint: endpoint, Client: client}
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	NS      string   `xml:"xmlns:soapenv,attr"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Operation soapOperation
}

type soapOperation struct {
	XMLName   xml.Name
	SessionID string `xml:"sessionId,omitempty"`
	Payload   string `xml:"payload,omitempty"`
}

type soapResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response soapResult `xml:"response"`
	} `xml:"Body"`
}

type soapResult struct {
	Code      int    `xml:"code"`
	Message   string `xml:"message"`
	SessionID string `xml:"sessionId"`
	Validity  int    `xml:"validity"`
	Reference string `xml:"reference"`
	Status    string `xml:"status"`
	Fields    []struct {
		Name    string `xml:"name"`
		Message string `xml:"message"`
	} `xml:"fields>field"`
}

func (t *HTTPTransport) Call(ctx context.Context, cred provider.Credential, action string, body interface{}) (*Result, error) {
	payload := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = string(raw)
	}

	envelope := soapEnvelope{
		NS: "http://schemas.xmlsoap.org/soap/envelope/",
		Body: soapBody{
			Operation: soapOperation{
				XMLName:   xml.Name{Local: action},
				SessionID: cred.Token,
				Payload:   payload,
			},
		},
	}

	raw, err := xml.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.Endpoint,
		bytes.NewBufferString(xml.Header+string(raw)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("soap endpoint returned %s: %s", resp.Status, string(bodyBytes))
	}

	decoded := soapResponse{}
	if err := xml.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse soap response: %v", err)
	}

	res := decoded.Body.Response
	out := &Result{
		OK:            res.Code == 0,
		Token:         res.SessionID,
		ExpiresIn:     res.Validity,
		Reference:     res.Reference,
		DossierStatus: res.Status,
		Message:       res.Message,
	}
	for _, f := range res.Fields {
		out.FieldErrors = append(out.FieldErrors, trerr.FieldError{
			Field:   f.Name,
			Message: f.Message,
		})
	}
	return out, nil
}
