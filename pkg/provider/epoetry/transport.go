package epoetry

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"content_trans_api/pkg/provider"
	"content_trans_api/pkg/trerr"
)

// HTTPTransport speaks the successor service's typed SOAP operations.
// Each operation has its own request element; responses share one result
// shape.
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

type envelope struct {
	XMLName xml.Name     `xml:"soapenv:Envelope"`
	NS      string       `xml:"xmlns:soapenv,attr"`
	Body    envelopeBody `xml:"soapenv:Body"`
}

type envelopeBody struct {
	Operation interface{}
}

type loginRequest struct {
	XMLName  xml.Name `xml:"loginRequest"`
	Username string   `xml:"username"`
	Password string   `xml:"password"`
}

type pingRequest struct {
	XMLName xml.Name `xml:"pingRequest"`
	Ticket  string   `xml:"ticket"`
}

type documentLeaf struct {
	Path string `xml:"path"`
	Text string `xml:"text"`
}

type createLinguisticRequest struct {
	XMLName         xml.Name       `xml:"createLinguisticRequest"`
	Ticket          string         `xml:"ticket"`
	RequesterCode   string         `xml:"requesterCode"`
	SourceLanguage  string         `xml:"sourceLanguage"`
	TargetLanguages []string       `xml:"targetLanguages>language"`
	Deadline        string         `xml:"deadline,omitempty"`
	Comment         string         `xml:"comment,omitempty"`
	Documents       []documentLeaf `xml:"documents>document"`
	Characters      int            `xml:"characters"`
	Pages           float64        `xml:"pages"`
}

type getRequestStatus struct {
	XMLName   xml.Name `xml:"getRequestStatus"`
	Ticket    string   `xml:"ticket"`
	Reference string   `xml:"reference"`
}

type modifyLinguisticRequest struct {
	XMLName        xml.Name `xml:"modifyLinguisticRequest"`
	Ticket         string   `xml:"ticket"`
	Reference      string   `xml:"reference"`
	AddedLanguages []string `xml:"addedLanguages>language"`
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response operationResponse `xml:"response"`
	} `xml:"Body"`
}

type operationResponse struct {
	Success       bool   `xml:"success"`
	Ticket        string `xml:"ticket"`
	ValidUntil    string `xml:"validUntil"`
	Reference     string `xml:"reference"`
	RequestStatus string `xml:"requestStatus"`
	Message       string `xml:"message"`
	Errors        []struct {
		Field   string `xml:"field"`
		Message string `xml:"message"`
	} `xml:"errors>error"`
}

func (t *HTTPTransport) call(ctx context.Context, action string, op interface{}) (*Result, error) {
	env := envelope{
		NS:   "http://schemas.xmlsoap.org/soap/envelope/",
		Body: envelopeBody{Operation: op},
	}
	raw, err := xml.Marshal(env)
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

	decoded := responseEnvelope{}
	if err := xml.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse soap response: %v", err)
	}

	res := decoded.Body.Response
	out := &Result{
		OK:            res.Success,
		Token:         res.Ticket,
		Reference:     res.Reference,
		RequestStatus: res.RequestStatus,
		Message:       res.Message,
	}
	if res.ValidUntil != "" {
		if ts, err := time.Parse(time.RFC3339, res.ValidUntil); err == nil {
			out.ExpiresAt = ts
		}
	}
	for _, e := range res.Errors {
		out.FieldErrors = append(out.FieldErrors, trerr.FieldError{
			Field:   e.Field,
			Message: e.Message,
		})
	}
	return out, nil
}

func (t *HTTPTransport) Login(ctx context.Context, username, password string) (*Result, error) {
	return t.call(ctx, "login", loginRequest{Username: username, Password: password})
}

func (t *HTTPTransport) Ping(ctx context.Context, cred provider.Credential) error {
	res, err := t.call(ctx, "ping", pingRequest{Ticket: cred.Token})
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("ping rejected: %s", res.Message)
	}
	return nil
}

func (t *HTTPTransport) CreateLinguisticRequest(ctx context.Context, cred provider.Credential, job provider.Job) (*Result, error) {
	req := createLinguisticRequest{
		Ticket:          cred.Token,
		RequesterCode:   job.RequesterCode,
		SourceLanguage:  job.SourceLanguage,
		TargetLanguages: job.TargetLanguages,
		Comment:         job.Message,
		Characters:      job.Characters,
		Pages:           job.Pages,
	}
	if job.Deadline != nil {
		req.Deadline = job.Deadline.UTC().Format(time.RFC3339)
	}
	if job.LegacyReference != "" {
		if req.Comment != "" {
			req.Comment += " "
		}
		req.Comment += "[predecessor: " + job.LegacyReference + "]"
	}
	for _, pl := range job.Leaves {
		req.Documents = append(req.Documents, documentLeaf{Path: pl.Path, Text: pl.Leaf.Text})
	}
	return t.call(ctx, "createLinguisticRequest", req)
}

func (t *HTTPTransport) GetRequestStatus(ctx context.Context, cred provider.Credential, ref string) (*Result, error) {
	return t.call(ctx, "getRequestStatus", getRequestStatus{Ticket: cred.Token, Reference: ref})
}

func (t *HTTPTransport) ModifyLinguisticRequest(ctx context.Context, cred provider.Credential, ref string, addLangs []string) (*Result, error) {
	return t.call(ctx, "modifyLinguisticRequest", modifyLinguisticRequest{
		Ticket:         cred.Token,
		Reference:      ref,
		AddedLanguages: addLangs,
	})
}
