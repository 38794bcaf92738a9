package models

type Coordinate struct {
	Lat float64
	Lon float64
}

type Customer struct {
	ID   string
	Name string
	Loc  Coordinate
	// Valid is false when the row's coordinates could not be parsed; such
	// rows are kept so they still show up in the output.
	Valid    bool
	RowIndex int
}

type ResultRow struct {
	KaccID   string
	KaccName string
	KaccLat  float64
	KaccLon  float64
	// KaccValid mirrors Customer.Valid; KaccLat/KaccLon are meaningless
	// when it is false.
	KaccValid bool
	PosID     string
	PosName   string
	PosLat    float64
	PosLon    float64
	// Found is false for customers without valid coordinates.
	Found          bool
	Distance       float64 // meters
	Azimuth        float64 // degrees, customer -> POS
	ReverseAzimuth float64 // degrees, POS -> customer
}

// Waypoint is one row of the destination sheet.
type Waypoint struct {
	ID       string
	Name     string
	Start    Coordinate
	Azimuth  float64 // degrees
	Distance float64 // meters
	Valid    bool
	RowIndex int
}

type DestinationRow struct {
	Waypoint
	Found          bool
	Dest           Coordinate
	ReverseAzimuth float64
}
