package ojp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
)

const requestTimeLayout = "2006-01-02T15:04:05Z"

var templateFuncs = template.FuncMap{
	"x": escapeXML,
}

// escapeXML escapes text for element content
func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func newMessageID() string {
	return uuid.NewString()
}

var stopEventTemplates = map[Dialect]*template.Template{
	DialectV1: template.Must(template.New("stopEventV1").Funcs(templateFuncs).Parse(
		`<?xml version="1.0" encoding="UTF-8"?>` +
			`<OJP xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns="http://www.siri.org.uk/siri" version="1.0" xmlns:ojp="http://www.vdv.de/ojp" xsi:schemaLocation="http://www.siri.org.uk/siri ../ojp-xsd-v1.0/OJP.xsd">` +
			`<OJPRequest><ServiceRequest>` +
			`<RequestTimestamp>{{.Timestamp}}</RequestTimestamp>` +
			`<RequestorRef>{{x .RequestorRef}}</RequestorRef>` +
			`<ojp:OJPStopEventRequest>` +
			`<RequestTimestamp>{{.Timestamp}}</RequestTimestamp>` +
			`<ojp:Location><ojp:PlaceRef>` +
			`<ojp:StopPlaceRef>{{x .StopID}}</ojp:StopPlaceRef>` +
			`<ojp:LocationName><ojp:Text>Station</ojp:Text></ojp:LocationName>` +
			`</ojp:PlaceRef>` +
			`<ojp:DepArrTime>{{.Timestamp}}</ojp:DepArrTime>` +
			`</ojp:Location>` +
			`<ojp:Params>` +
			`<ojp:NumberOfResults>{{.Limit}}</ojp:NumberOfResults>` +
			`<ojp:StopEventType>departure</ojp:StopEventType>` +
			`<ojp:IncludeRealtimeData>true</ojp:IncludeRealtimeData>` +
			`</ojp:Params>` +
			`</ojp:OJPStopEventRequest>` +
			`</ServiceRequest></OJPRequest></OJP>`)),
	DialectV2: template.Must(template.New("stopEventV2").Funcs(templateFuncs).Parse(
		`<?xml version="1.0" encoding="UTF-8"?>` +
			`<OJP xmlns="http://www.vdv.de/ojp" xmlns:siri="http://www.siri.org.uk/siri" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="2.0">` +
			`<OJPRequest><siri:ServiceRequest>` +
			`<siri:RequestTimestamp>{{.Timestamp}}</siri:RequestTimestamp>` +
			`<siri:RequestorRef>{{x .RequestorRef}}</siri:RequestorRef>` +
			`<OJPStopEventRequest>` +
			`<siri:RequestTimestamp>{{.Timestamp}}</siri:RequestTimestamp>` +
			`<siri:MessageIdentifier>{{.MessageID}}</siri:MessageIdentifier>` +
			`<Location><PlaceRef>` +
			`<StopPlaceRef>{{x .StopID}}</StopPlaceRef>` +
			`<Name><Text>Station</Text></Name>` +
			`</PlaceRef>` +
			`<DepArrTime>{{.Timestamp}}</DepArrTime>` +
			`</Location>` +
			`<Params>` +
			`<NumberOfResults>{{.Limit}}</NumberOfResults>` +
			`<StopEventType>departure</StopEventType>` +
			`<UseRealtimeData>full</UseRealtimeData>` +
			`</Params>` +
			`</OJPStopEventRequest>` +
			`</siri:ServiceRequest></OJPRequest></OJP>`)),
}

var locationTemplates = map[Dialect]*template.Template{
	DialectV1: template.Must(template.New("locationV1").Funcs(templateFuncs).Parse(
		`<?xml version="1.0" encoding="UTF-8"?>` +
			`<OJP xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns="http://www.siri.org.uk/siri" version="1.0" xmlns:ojp="http://www.vdv.de/ojp">` +
			`<OJPRequest><ServiceRequest>` +
			`<RequestTimestamp>{{.Timestamp}}</RequestTimestamp>` +
			`<RequestorRef>{{x .RequestorRef}}</RequestorRef>` +
			`<ojp:OJPLocationInformationRequest>` +
			`<RequestTimestamp>{{.Timestamp}}</RequestTimestamp>` +
			`<ojp:InitialInput><ojp:LocationName>{{x .Query}}</ojp:LocationName></ojp:InitialInput>` +
			`<ojp:Restrictions>` +
			`<ojp:Type>stop</ojp:Type>` +
			`<ojp:NumberOfResults>{{.Limit}}</ojp:NumberOfResults>` +
			`</ojp:Restrictions>` +
			`</ojp:OJPLocationInformationRequest>` +
			`</ServiceRequest></OJPRequest></OJP>`)),
	DialectV2: template.Must(template.New("locationV2").Funcs(templateFuncs).Parse(
		`<?xml version="1.0" encoding="UTF-8"?>` +
			`<OJP xmlns="http://www.vdv.de/ojp" xmlns:siri="http://www.siri.org.uk/siri" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="2.0">` +
			`<OJPRequest><siri:ServiceRequest>` +
			`<siri:ServiceRequestContext><siri:Language>de</siri:Language></siri:ServiceRequestContext>` +
			`<siri:RequestTimestamp>{{.Timestamp}}</siri:RequestTimestamp>` +
			`<siri:RequestorRef>{{x .RequestorRef}}</siri:RequestorRef>` +
			`<OJPLocationInformationRequest>` +
			`<siri:RequestTimestamp>{{.Timestamp}}</siri:RequestTimestamp>` +
			`<siri:MessageIdentifier>{{.MessageID}}</siri:MessageIdentifier>` +
			`<InitialInput><Name>{{x .Query}}</Name></InitialInput>` +
			`<Restrictions>` +
			`<Type>stop</Type>` +
			`<NumberOfResults>{{.Limit}}</NumberOfResults>` +
			`<IncludePtModes>true</IncludePtModes>` +
			`</Restrictions>` +
			`</OJPLocationInformationRequest>` +
			`</siri:ServiceRequest></OJPRequest></OJP>`)),
}

type requestData struct {
	Timestamp    string
	RequestorRef string
	MessageID    string
	StopID       string
	Query        string
	Limit        int
}

func (c *Codec) requestData(requestorRef string, limit int) requestData {
	if requestorRef == "" {
		requestorRef = DefaultRequestorRef
	}
	if limit <= 0 {
		limit = 1
	}
	return requestData{
		Timestamp:    c.now().UTC().Format(requestTimeLayout),
		RequestorRef: requestorRef,
		MessageID:    c.newID(),
		Limit:        limit,
	}
}

// BuildDeparturesRequest returns a stop event request for the next departures at stopID
func (c *Codec) BuildDeparturesRequest(stopID, requestorRef string, limit int) ([]byte, error) {
	if strings.TrimSpace(stopID) == "" {
		return nil, fmt.Errorf("stop id is required")
	}
	data := c.requestData(requestorRef, limit)
	data.StopID = stopID
	return render(stopEventTemplates[c.dialect], data)
}

// BuildLocationSearchRequest returns a location information request restricted to stops
func (c *Codec) BuildLocationSearchRequest(query, requestorRef string, limit int) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	data := c.requestData(requestorRef, limit)
	data.Query = query
	return render(locationTemplates[c.dialect], data)
}

func render(tmpl *template.Template, data requestData) ([]byte, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("unsupported dialect")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s request: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// RequestTimestamp formats t the way outgoing requests carry it
func RequestTimestamp(t time.Time) string {
	return t.UTC().Format(requestTimeLayout)
}
