package ojp

import (
	"errors"
	"fmt"

	"github.com/mobil-koeln/ojp-sign/internal/models"
)

var (
	// ErrMalformedResponse indicates the body is not well-formed XML
	ErrMalformedResponse = errors.New("malformed OJP response")

	// ErrUnexpectedStructure indicates a well-formed document without the expected delivery
	ErrUnexpectedStructure = errors.New("unexpected OJP response structure")
)

var (
	tagOJP               = siriTag("OJP")
	tagOJPResponse       = siriTag("OJPResponse")
	tagServiceDelivery   = siriTag("ServiceDelivery")
	tagStopEventDelivery = ojpTag("OJPStopEventDelivery")
	tagStopEventResult   = ojpTag("StopEventResult")
	tagStopEvent         = ojpTag("StopEvent")
	tagThisCall          = ojpTag("ThisCall")
	tagCallAtStop        = ojpTag("CallAtStop")
	tagServiceDeparture  = ojpTag("ServiceDeparture")
	tagTimetabledTime    = ojpTag("TimetabledTime")
	tagEstimatedTime     = ojpTag("EstimatedTime")
	tagService           = ojpTag("Service")
	tagPublishedLineName = ojpTag("PublishedLineName")
	tagPublishedService  = ojpTag("PublishedServiceName")
	tagDestinationText   = ojpTag("DestinationText")
	tagMode              = ojpTag("Mode")
	tagPtMode            = ojpTag("PtMode")
	tagLocationDelivery  = ojpTag("OJPLocationInformationDelivery")
	tagPlaceResult       = ojpTag("PlaceResult")
	tagPlace             = ojpTag("Place")
	tagLocation          = ojpTag("Location")
	tagStopPlace         = ojpTag("StopPlace")
	tagStopPlaceRef      = ojpTag("StopPlaceRef")
	tagStopPlaceName     = ojpTag("StopPlaceName")
	tagLocationName      = ojpTag("LocationName")
	tagName              = ojpTag("Name")
	tagTopographicPlace  = ojpTag("TopographicPlaceName")
)

// delivery walks OJP -> OJPResponse -> ServiceDelivery -> want
func delivery(body []byte, want tag) (*node, error) {
	root, err := parseTree(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !root.is(tagOJP) {
		return nil, fmt.Errorf("%w: root element %s", ErrUnexpectedStructure, root.name)
	}
	sd := root.path(tagOJPResponse, tagServiceDelivery)
	if sd == nil {
		return nil, fmt.Errorf("%w: missing ServiceDelivery", ErrUnexpectedStructure)
	}
	d := sd.child(want)
	if d == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrUnexpectedStructure, want.fallback)
	}
	return d, nil
}

// ParseDepartures extracts departures from a stop event response.
// The returned slice is never nil. A non-nil error means the document could
// not be understood at all; individual records without a parseable
// timetabled time are skipped silently.
func (c *Codec) ParseDepartures(body []byte) ([]models.Departure, error) {
	deps := make([]models.Departure, 0)

	d, err := delivery(body, tagStopEventDelivery)
	if err != nil {
		return deps, err
	}

	for _, result := range d.all(tagStopEventResult) {
		if dep, ok := c.parseStopEvent(result.child(tagStopEvent)); ok {
			deps = append(deps, dep)
		}
	}
	return deps, nil
}

func (c *Codec) parseStopEvent(event *node) (models.Departure, bool) {
	var dep models.Departure

	call := event.child(tagThisCall)
	departure := call.child(tagServiceDeparture)
	if departure == nil {
		departure = call.path(tagCallAtStop, tagServiceDeparture)
	}
	if departure == nil {
		return dep, false
	}

	sched, err := c.ParseTimestamp(departure.child(tagTimetabledTime).textValue())
	if err != nil {
		return dep, false
	}
	dep.Scheduled = sched

	if est := departure.child(tagEstimatedTime); est != nil {
		if t, err := c.ParseTimestamp(est.textValue()); err == nil {
			dep.Estimated = t
		}
	}

	service := departure.child(tagService)
	if service == nil {
		service = event.child(tagService)
	}
	if service != nil {
		dep.Line = service.child(tagPublishedLineName).textValue()
		if dep.Line == "" {
			dep.Line = service.child(tagPublishedService).textValue()
		}
		dep.Direction = service.child(tagDestinationText).textValue()
		dep.Mode = service.path(tagMode, tagPtMode).textValue()
	}

	return dep, true
}

// ParseLocationSearch extracts stop places from a location information response.
// Results that are not stops (addresses, POIs) are skipped.
func (c *Codec) ParseLocationSearch(body []byte) ([]models.StopSearchResult, error) {
	stops := make([]models.StopSearchResult, 0)

	d, err := delivery(body, tagLocationDelivery)
	if err != nil {
		return stops, err
	}

	// OJP 2.0 wraps results in PlaceResult/Place, OJP 1.0 in Location/Location
	results := d.all(tagPlaceResult)
	if len(results) == 0 {
		results = d.all(tagLocation)
	}

	for _, result := range results {
		place := result.child(tagPlace)
		if place == nil {
			place = result.child(tagLocation)
		}
		stop := place.child(tagStopPlace)
		id := stop.child(tagStopPlaceRef).textValue()
		if id == "" {
			continue
		}

		name := stop.child(tagStopPlaceName).textValue()
		if name == "" {
			name = place.child(tagLocationName).textValue()
		}
		if name == "" {
			name = place.child(tagName).textValue()
		}

		locality := place.child(tagTopographicPlace).textValue()
		if locality == "" {
			locality = stop.child(tagTopographicPlace).textValue()
		}

		stops = append(stops, models.StopSearchResult{
			ID:       id,
			Name:     name,
			Locality: locality,
		})
	}
	return stops, nil
}
