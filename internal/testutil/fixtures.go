package testutil

// Sample OJP responses for codec and client tests

// SampleDepartureResponseV1 is an OJP 1.0 stop event response: siri default
// namespace, ojp: prefixed payload, ServiceDeparture nested in CallAtStop and
// service info attached to the StopEvent.
const SampleDepartureResponseV1 = `<?xml version="1.0" encoding="UTF-8"?>
<siri:OJP xmlns:siri="http://www.siri.org.uk/siri" xmlns:ojp="http://www.vdv.de/ojp" version="1.0">
	<siri:OJPResponse>
		<siri:ServiceDelivery>
			<siri:ResponseTimestamp>2025-01-15T09:00:01Z</siri:ResponseTimestamp>
			<siri:ProducerRef>EFAController10.6</siri:ProducerRef>
			<ojp:OJPStopEventDelivery>
				<siri:ResponseTimestamp>2025-01-15T09:00:01Z</siri:ResponseTimestamp>
				<siri:Status>true</siri:Status>
				<ojp:StopEventResult>
					<ojp:ResultId>ID-1</ojp:ResultId>
					<ojp:StopEvent>
						<ojp:ThisCall>
							<ojp:CallAtStop>
								<siri:StopPointRef>8591123</siri:StopPointRef>
								<ojp:StopPointName><ojp:Text>Zürich, Bucheggplatz</ojp:Text></ojp:StopPointName>
								<ojp:ServiceDeparture>
									<ojp:TimetabledTime>2025-01-15T09:05:00Z</ojp:TimetabledTime>
									<ojp:EstimatedTime>2025-01-15T09:06:00Z</ojp:EstimatedTime>
								</ojp:ServiceDeparture>
							</ojp:CallAtStop>
						</ojp:ThisCall>
						<ojp:Service>
							<ojp:OperatingDayRef>2025-01-15</ojp:OperatingDayRef>
							<siri:LineRef>ojp:91011:A</siri:LineRef>
							<ojp:Mode>
								<ojp:PtMode>tram</ojp:PtMode>
								<ojp:Name><ojp:Text>Tram</ojp:Text></ojp:Name>
							</ojp:Mode>
							<ojp:PublishedLineName><ojp:Text>11</ojp:Text></ojp:PublishedLineName>
							<ojp:DestinationText><ojp:Text>Zürich, Auzelg</ojp:Text></ojp:DestinationText>
						</ojp:Service>
					</ojp:StopEvent>
				</ojp:StopEventResult>
				<ojp:StopEventResult>
					<ojp:ResultId>ID-2</ojp:ResultId>
					<ojp:StopEvent>
						<ojp:ThisCall>
							<ojp:CallAtStop>
								<ojp:ServiceDeparture>
									<ojp:TimetabledTime>2025-01-15T09:12:00Z</ojp:TimetabledTime>
								</ojp:ServiceDeparture>
							</ojp:CallAtStop>
						</ojp:ThisCall>
						<ojp:Service>
							<ojp:Mode><ojp:PtMode>bus</ojp:PtMode></ojp:Mode>
							<ojp:PublishedLineName><ojp:Text>32</ojp:Text></ojp:PublishedLineName>
							<ojp:DestinationText><ojp:Text>Zürich, Holzerhurd</ojp:Text></ojp:DestinationText>
						</ojp:Service>
					</ojp:StopEvent>
				</ojp:StopEventResult>
			</ojp:OJPStopEventDelivery>
		</siri:ServiceDelivery>
	</siri:OJPResponse>
</siri:OJP>`

// SampleDepartureResponseV2 is an OJP 2.0 stop event response: ojp default
// namespace, siri: prefixed envelope, PublishedServiceName and numeric offsets.
const SampleDepartureResponseV2 = `<?xml version="1.0" encoding="UTF-8"?>
<OJP xmlns="http://www.vdv.de/ojp" xmlns:siri="http://www.siri.org.uk/siri" version="2.0">
	<OJPResponse>
		<siri:ServiceDelivery>
			<siri:ResponseTimestamp>2025-01-15T10:00:01+01:00</siri:ResponseTimestamp>
			<OJPStopEventDelivery>
				<siri:Status>true</siri:Status>
				<StopEventResult>
					<Id>1</Id>
					<StopEvent>
						<ThisCall>
							<CallAtStop>
								<siri:StopPointRef>ch:1:sloid:91123</siri:StopPointRef>
								<ServiceDeparture>
									<TimetabledTime>2025-01-15T10:05:00+01:00</TimetabledTime>
									<EstimatedTime>2025-01-15T10:07:00+01:00</EstimatedTime>
								</ServiceDeparture>
							</CallAtStop>
						</ThisCall>
						<Service>
							<Mode><PtMode>tram</PtMode></Mode>
							<PublishedServiceName><Text>15</Text></PublishedServiceName>
							<DestinationText><Text>Zürich, Stettbach</Text></DestinationText>
						</Service>
					</StopEvent>
				</StopEventResult>
			</OJPStopEventDelivery>
		</siri:ServiceDelivery>
	</OJPResponse>
</OJP>`

// SampleDepartureResponseLegacy places ServiceDeparture directly under ThisCall
// with the service attached to the departure and a plain-text line name.
const SampleDepartureResponseLegacy = `<?xml version="1.0" encoding="UTF-8"?>
<OJP xmlns="http://www.siri.org.uk/siri" xmlns:ojp="http://www.vdv.de/ojp" version="1.0">
	<OJPResponse>
		<ServiceDelivery>
			<ojp:OJPStopEventDelivery>
				<ojp:StopEventResult>
					<ojp:StopEvent>
						<ojp:ThisCall>
							<ojp:ServiceDeparture>
								<ojp:TimetabledTime>2025-01-15T09:30:00</ojp:TimetabledTime>
								<ojp:Service>
									<ojp:PublishedLineName>S9</ojp:PublishedLineName>
									<ojp:DestinationText>Uster</ojp:DestinationText>
									<ojp:Mode><ojp:PtMode>rail</ojp:PtMode></ojp:Mode>
								</ojp:Service>
							</ojp:ServiceDeparture>
						</ojp:ThisCall>
					</ojp:StopEvent>
				</ojp:StopEventResult>
				<ojp:StopEventResult>
					<ojp:StopEvent>
						<ojp:ThisCall>
							<ojp:ServiceDeparture>
								<ojp:TimetabledTime>not-a-time</ojp:TimetabledTime>
								<ojp:Service>
									<ojp:PublishedLineName>S12</ojp:PublishedLineName>
								</ojp:Service>
							</ojp:ServiceDeparture>
						</ojp:ThisCall>
					</ojp:StopEvent>
				</ojp:StopEventResult>
			</ojp:OJPStopEventDelivery>
		</ServiceDelivery>
	</OJPResponse>
</OJP>`

// SampleEmptyDepartureResponse is a well-formed response without results
const SampleEmptyDepartureResponse = `<?xml version="1.0" encoding="UTF-8"?>
<siri:OJP xmlns:siri="http://www.siri.org.uk/siri" xmlns:ojp="http://www.vdv.de/ojp" version="1.0">
	<siri:OJPResponse>
		<siri:ServiceDelivery>
			<ojp:OJPStopEventDelivery>
				<siri:Status>true</siri:Status>
			</ojp:OJPStopEventDelivery>
		</siri:ServiceDelivery>
	</siri:OJPResponse>
</siri:OJP>`

// SampleMalformedResponse is truncated mid-document
const SampleMalformedResponse = `<?xml version="1.0" encoding="UTF-8"?>
<siri:OJP xmlns:siri="http://www.siri.org.uk/siri"><siri:OJPResponse><siri:ServiceDeli`

// SampleLocationResponseV1 is an OJP 1.0 location information response
const SampleLocationResponseV1 = `<?xml version="1.0" encoding="UTF-8"?>
<siri:OJP xmlns:siri="http://www.siri.org.uk/siri" xmlns:ojp="http://www.vdv.de/ojp" version="1.0">
	<siri:OJPResponse>
		<siri:ServiceDelivery>
			<ojp:OJPLocationInformationDelivery>
				<siri:Status>true</siri:Status>
				<ojp:Location>
					<ojp:Location>
						<ojp:StopPlace>
							<ojp:StopPlaceRef>8591123</ojp:StopPlaceRef>
							<ojp:StopPlaceName><ojp:Text>Zürich, Bucheggplatz</ojp:Text></ojp:StopPlaceName>
						</ojp:StopPlace>
						<ojp:LocationName><ojp:Text>Zürich, Bucheggplatz</ojp:Text></ojp:LocationName>
						<ojp:TopographicPlaceName><ojp:Text>Zürich</ojp:Text></ojp:TopographicPlaceName>
					</ojp:Location>
					<ojp:Complete>true</ojp:Complete>
				</ojp:Location>
				<ojp:Location>
					<ojp:Location>
						<ojp:StopPlace>
							<ojp:StopPlaceRef>8503000</ojp:StopPlaceRef>
							<ojp:StopPlaceName><ojp:Text>Zürich HB</ojp:Text></ojp:StopPlaceName>
						</ojp:StopPlace>
					</ojp:Location>
				</ojp:Location>
			</ojp:OJPLocationInformationDelivery>
		</siri:ServiceDelivery>
	</siri:OJPResponse>
</siri:OJP>`

// SampleLocationResponseV2 is an OJP 2.0 location information response
const SampleLocationResponseV2 = `<?xml version="1.0" encoding="UTF-8"?>
<OJP xmlns="http://www.vdv.de/ojp" xmlns:siri="http://www.siri.org.uk/siri" version="2.0">
	<OJPResponse>
		<siri:ServiceDelivery>
			<OJPLocationInformationDelivery>
				<PlaceResult>
					<Place>
						<StopPlace>
							<StopPlaceRef>ch:1:sloid:91123</StopPlaceRef>
							<StopPlaceName><Text>Bucheggplatz</Text></StopPlaceName>
						</StopPlace>
						<Name><Text>Zürich, Bucheggplatz</Text></Name>
						<TopographicPlaceName><Text>Zürich</Text></TopographicPlaceName>
					</Place>
					<Complete>true</Complete>
				</PlaceResult>
				<PlaceResult>
					<Place>
						<Address>
							<PublicCode>no-stop</PublicCode>
						</Address>
					</Place>
				</PlaceResult>
			</OJPLocationInformationDelivery>
		</siri:ServiceDelivery>
	</OJPResponse>
</OJP>`
