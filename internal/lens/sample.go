package lens

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// SamplePoint is one calibration measurement. For vignetting X is the
// normalized radius and Y the intensity; for distortion X is the undistorted
// radius and Y the observed radius.
type SamplePoint struct {
	X float64
	Y float64
}

// ImageSample describes one calibration photo as reported by its metadata.
type ImageSample struct {
	Path        string
	LensModel   string
	LensMaker   string
	Mount       string
	Camera      string
	FocalLength float64
	Aperture    float64
	CropFactor  float64
	AspectRatio string
	// Distance is the subject distance in metres; +Inf means infinity.
	Distance float64
	Points   []SamplePoint
}

// Validate reports the first required field that is missing or unusable.
func (s ImageSample) Validate() error {
	if strings.TrimSpace(s.LensModel) == "" {
		return errors.New("lens model missing")
	}
	if !(s.FocalLength > 0) || math.IsInf(s.FocalLength, 0) {
		return fmt.Errorf("focal length %v is not positive", s.FocalLength)
	}
	if !(s.Aperture > 0) || math.IsInf(s.Aperture, 0) {
		return fmt.Errorf("aperture %v is not positive", s.Aperture)
	}
	return nil
}

// Bucket returns the calibration bucket this sample belongs to.
func (s ImageSample) Bucket() Bucket {
	return Bucket{
		LensModel:   s.LensModel,
		FocalLength: s.FocalLength,
		Aperture:    s.Aperture,
		Distance:    s.Distance,
	}
}

// Bucket keys fitted coefficients; they are only valid for the bucket they came from.
type Bucket struct {
	LensModel   string
	FocalLength float64
	Aperture    float64
	Distance    float64
}

func (b Bucket) String() string {
	return fmt.Sprintf("%s, %smm, f/%s, %s m", b.LensModel, FormatFocal(b.FocalLength), FormatFocal(b.Aperture), FormatDistance(b.Distance))
}

func (b Bucket) compare(o Bucket) int {
	if c := strings.Compare(b.LensModel, o.LensModel); c != 0 {
		return c
	}
	for _, pair := range [][2]float64{{b.FocalLength, o.FocalLength}, {b.Aperture, o.Aperture}, {b.Distance, o.Distance}} {
		switch {
		case pair[0] < pair[1]:
			return -1
		case pair[0] > pair[1]:
			return 1
		}
	}
	return 0
}

// BucketGroup is the set of samples sharing one bucket.
type BucketGroup struct {
	Bucket  Bucket
	Samples []ImageSample
}

// GroupByBucket partitions samples by bucket, ordered by lens, focal length,
// aperture and distance. Sample order within a group is preserved.
func GroupByBucket(samples []ImageSample) []BucketGroup {
	index := map[Bucket]int{}
	var groups []BucketGroup
	for _, s := range samples {
		key := s.Bucket()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, BucketGroup{Bucket: key})
		}
		groups[i].Samples = append(groups[i].Samples, s)
	}
	slices.SortStableFunc(groups, func(a, b BucketGroup) int { return a.Bucket.compare(b.Bucket) })
	return groups
}

// GroupByLens partitions samples by lens model, keyed in sorted order.
func GroupByLens(samples []ImageSample) ([]string, map[string][]ImageSample) {
	groups := map[string][]ImageSample{}
	for _, s := range samples {
		groups[s.LensModel] = append(groups[s.LensModel], s)
	}
	models := make([]string, 0, len(groups))
	for model := range groups {
		models = append(models, model)
	}
	slices.Sort(models)
	return models, groups
}

// FormatFocal renders a focal length or f-number with one decimal, the way
// lensfun files and the lenses file key them.
func FormatFocal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatDistance renders a subject distance, using "inf" for infinity.
func FormatDistance(d float64) string {
	if math.IsInf(d, 1) {
		return "inf"
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

// ParseDistance accepts a metre value or "inf".
func ParseDistance(value string) (float64, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "inf", "infinity", "∞":
		return math.Inf(1), nil
	}
	d, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse distance %q: %w", value, err)
	}
	if !(d > 0) {
		return 0, fmt.Errorf("distance %q must be positive", value)
	}
	return d, nil
}
