package repository_test

import (
	"testing"

	"github.com/kioku-ai/kioku/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestEncodeVector(t *testing.T) {
	gt.Equal(t, repository.EncodeVector([]float32{1, 2.5, -3}), "1,2.5,-3")
	gt.Equal(t, repository.EncodeVector([]float32{0.25}), "0.25")
	gt.Equal(t, repository.EncodeVector(nil), "")
}

func TestVectorRoundTrip(t *testing.T) {
	// Values without short decimal representations must survive unchanged.
	original := []float32{0.1, 1.0 / 3.0, -2.718281828, 1e-7, 3.4e38}

	decoded, err := repository.DecodeVector(repository.EncodeVector(original))
	gt.NoError(t, err)
	gt.A(t, decoded).Length(len(original))
	for i := range original {
		gt.Equal(t, decoded[i], original[i])
	}
}

func TestDecodeVector(t *testing.T) {
	t.Run("empty string decodes to nil", func(t *testing.T) {
		vec, err := repository.DecodeVector("")
		gt.NoError(t, err)
		gt.A(t, vec).Length(0)
	})

	t.Run("whitespace around elements is tolerated", func(t *testing.T) {
		vec, err := repository.DecodeVector("1, 2 ,3")
		gt.NoError(t, err)
		gt.Equal(t, vec, []float32{1, 2, 3})
	})

	t.Run("malformed element is an error", func(t *testing.T) {
		_, err := repository.DecodeVector("1,abc,3")
		gt.Error(t, err)
	})

	t.Run("trailing comma is an error", func(t *testing.T) {
		_, err := repository.DecodeVector("1,2,")
		gt.Error(t, err)
	})
}
