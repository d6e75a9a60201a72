package model

// DiagnoseRequest is one photo submission after form parsing
type DiagnoseRequest struct {
	Image         []byte
	ContentType   string
	Language      string // raw, normalized by the service
	AgeConfirmed  bool
	PhotoPosition string
	ShotType      string
	ClientID      string
	Force         bool
}

// Legal holds the translated legal/disclaimer strings
type Legal struct {
	DisclaimerTitle string `json:"disclaimer_title"`
	DisclaimerBody  string `json:"disclaimer_body"`
	PrivacyTitle    string `json:"privacy_title"`
	PrivacyBody     string `json:"privacy_body"`
	AlreadyAnalyzed string `json:"already_analyzed"`
}

// DiagnoseResponse is the envelope returned by POST /diagnose
type DiagnoseResponse struct {
	Status             string    `json:"status"`
	AlreadyAnalyzed    bool      `json:"already_analyzed"`
	ImageHash          string    `json:"image_hash"`
	Language           string    `json:"language"`
	Result             Diagnosis `json:"result"`
	Legal              Legal     `json:"legal"`
	DebugPhotoPosition string    `json:"debug_photo_position"`
	DebugShotType      string    `json:"debug_shot_type"`
}

// LegalResponse is the envelope returned by GET /legal
type LegalResponse struct {
	Status   string `json:"status"`
	Language string `json:"language"`
	Legal    Legal  `json:"legal"`
}
