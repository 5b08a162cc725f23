package lensconf

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"lenscal/internal/lens"
)

// ReadPoints loads distortion measurements from an undistorted,distorted CSV
// file. Blank lines and lines starting with # are skipped, as is a header row
// whose first field is not numeric. A missing file returns nil, nil.
func ReadPoints(path string) ([]lens.SamplePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open points file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var points []lens.SamplePoint
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if errX != nil || errY != nil {
			if len(points) == 0 && errX != nil {
				continue
			}
			return nil, fmt.Errorf("%s: record %d: non-numeric value", path, line)
		}
		points = append(points, lens.SamplePoint{X: x, Y: y})
	}
	return points, nil
}
