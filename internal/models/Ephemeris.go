package models

// Ephemeris is the parsed OEM dataset: segment metadata plus the full
// time-ordered collection of state vectors.
type Ephemeris struct {
	Metadata     Metadata      `json:"metadata"`
	StateVectors []StateVector `json:"state_vectors"`
}

// Metadata carries the OEM segment header fields as published.
type Metadata struct {
	ObjectName string `json:"object_name" example:"ISS"`
	ObjectID   string `json:"object_id" example:"1998-067-A"`
	CenterName string `json:"center_name" example:"EARTH"`
	RefFrame   string `json:"ref_frame" example:"EME2000"`
	TimeSystem string `json:"time_system" example:"UTC"`
	StartTime  string `json:"start_time" example:"2025-047T12:00:00.000Z"`
	StopTime   string `json:"stop_time" example:"2025-062T12:00:00.000Z"`
}

// Summary aggregates the dataset for the metadata endpoint.
type Summary struct {
	StateVectorCount int     `json:"state_vector_count" example:"5000"`
	FirstEpoch       string  `json:"first_epoch" example:"2025-047T12:00:00.000Z"`
	LastEpoch        string  `json:"last_epoch" example:"2025-062T12:00:00.000Z"`
	AverageSpeed     float64 `json:"average_speed" example:"7.6612"`
}
