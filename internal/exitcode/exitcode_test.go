package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(NotFound, nil))
}

func TestFrom(t *testing.T) {
	assert.Equal(t, OK, From(nil))
	assert.Equal(t, NotFound, From(Wrap(NotFound, errors.New("missing"))))
	assert.Equal(t, Environment, From(errors.New("unclassified")))
}

func TestFrom_WrappedDeeper(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(Version, errors.New("no version")))
	assert.Equal(t, Version, From(err))
}

func TestErrorPreservesCause(t *testing.T) {
	cause := errors.New("missing")
	err := Wrap(Download, cause)
	assert.Equal(t, "missing", err.Error())
	assert.True(t, errors.Is(err, cause))
}
