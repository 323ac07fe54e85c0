package repository

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// EncodeVector serializes an embedding into the on-disk text format: a
// comma-separated list of decimal values. The shortest representation that
// parses back to the same float32 is used, so encoding round-trips exactly.
func EncodeVector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}

// DecodeVector parses the comma-separated text format back into a vector.
// An empty string decodes to nil.
func DecodeVector(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid vector element", goerr.V("index", i), goerr.V("value", part))
		}
		vec[i] = float32(v)
	}
	return vec, nil
}
