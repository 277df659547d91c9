package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, GetVersion())
	assert.Contains(t, s, GetBuildDate())
	assert.Contains(t, s, "salesreport")
}
