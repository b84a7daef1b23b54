package feed

const (
	velovURL    = "https://download.data.grandlyon.com/ws/rdata/jcd_jcdecaux.jcdvelov/all.json"
	passagesURL = "https://download.data.grandlyon.com/ws/rdata/tcl_sytral.tclpassagearret/all.json"
	wfsBase     = "https://download.data.grandlyon.com/wfs/rdata?SERVICE=WFS&VERSION=2.0.0&request=GetFeature&outputFormat=application%2Fjson%3B%20subtype%3Dgeojson&SRSNAME=EPSG:4171&typename="
	stopsURL    = wfsBase + "tcl_sytral.tclarret&startIndex=0"
	tramURL     = wfsBase + "tcl_sytral.tcllignetram_2_0_0"
	busURL      = wfsBase + "tcl_sytral.tcllignebus_2_0_0"
	metroURL    = wfsBase + "tcl_sytral.tcllignemf_2_0_0&startIndex=0"
	parkRideURL = wfsBase + "tcl_sytral.tclparcrelaistr"
)

// Endpoint describes one open-data feed.
type Endpoint struct {
	Name     string
	URL      string
	Envelope Envelope
	// Auth marks endpoints requiring HTTP Basic credentials.
	Auth bool
	// Paginate adds the maxfeatures/start query parameters.
	Paginate bool
	// PageSize <= 0 requests every record in one call (maxfeatures=-1).
	PageSize int
}

// Catalog groups the endpoints the dashboard reads.
type Catalog struct {
	Bikes       Endpoint
	Passages    Endpoint
	Stops       Endpoint
	TramTraces  Endpoint
	BusTraces   Endpoint
	MetroTraces Endpoint
	ParkRides   Endpoint
}

// DefaultCatalog returns the Grand Lyon open-data endpoints.
func DefaultCatalog() Catalog {
	return Catalog{
		Bikes:       Endpoint{Name: "velov", URL: velovURL, Envelope: EnvelopeValues, Paginate: true},
		Passages:    Endpoint{Name: "passages", URL: passagesURL, Envelope: EnvelopeValues, Auth: true, Paginate: true},
		Stops:       Endpoint{Name: "stops", URL: stopsURL, Envelope: EnvelopeFeatures},
		TramTraces:  Endpoint{Name: "tram-traces", URL: tramURL, Envelope: EnvelopeFeatures},
		BusTraces:   Endpoint{Name: "bus-traces", URL: busURL, Envelope: EnvelopeFeatures},
		MetroTraces: Endpoint{Name: "metro-traces", URL: metroURL, Envelope: EnvelopeFeatures},
		ParkRides:   Endpoint{Name: "park-rides", URL: parkRideURL, Envelope: EnvelopeFeatures},
	}
}

// Override replaces the URL of the endpoint when u is not empty.
func (e Endpoint) Override(u string) Endpoint {
	if u != "" {
		e.URL = u
	}
	return e
}

// WithOverrides applies the *_URL environment overrides read through getenv
// (VELOV_URL, PASSAGES_URL, STOPS_URL, TRAM_TRACES_URL, BUS_TRACES_URL,
// METRO_TRACES_URL, PARK_RIDE_URL).
func (c Catalog) WithOverrides(getenv func(string) string) Catalog {
	c.Bikes = c.Bikes.Override(getenv("VELOV_URL"))
	c.Passages = c.Passages.Override(getenv("PASSAGES_URL"))
	c.Stops = c.Stops.Override(getenv("STOPS_URL"))
	c.TramTraces = c.TramTraces.Override(getenv("TRAM_TRACES_URL"))
	c.BusTraces = c.BusTraces.Override(getenv("BUS_TRACES_URL"))
	c.MetroTraces = c.MetroTraces.Override(getenv("METRO_TRACES_URL"))
	c.ParkRides = c.ParkRides.Override(getenv("PARK_RIDE_URL"))
	return c
}
