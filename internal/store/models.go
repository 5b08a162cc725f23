package store

import "time"

// RunStatus is the outcome of one recorded action run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of a calibration action.
type Run struct {
	ID           string
	Action       string
	Status       RunStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string
}

// TCAResult holds tca_correct coefficients for one source image.
type TCAResult struct {
	Source      string
	LensModel   string
	FocalLength float64
	Aperture    float64
	Complex     bool
	BR          float64
	VR          float64
	BB          float64
	VB          float64
	RawOutput   string
	RunID       string
	CreatedAt   time.Time
}

// VignettingResult holds fitted pa coefficients for one source image.
type VignettingResult struct {
	Source      string
	LensModel   string
	FocalLength float64
	Aperture    float64
	// Distance is in metres; +Inf means infinity.
	Distance   float64
	A          float64
	K1         float64
	K2         float64
	K3         float64
	RMS        float64
	MaxAbs     float64
	Iterations int
	RunID      string
	CreatedAt  time.Time
}
