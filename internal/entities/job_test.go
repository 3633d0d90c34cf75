package entities

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func Test_DescriptorOf_StripsMarkup(t *testing.T) {
	job := Job{
		ID:           "j1",
		Role:         " Backend Engineer ",
		Description:  "<p>Python <b>backend</b></p><ul><li>APIs</li><li>SQL</li></ul>",
		Requirements: "3+ years",
	}

	descriptor := DescriptorOf(job)

	assert.Equal(t, "j1", descriptor.JobID)
	assert.Equal(t, "Backend Engineer", descriptor.Role)
	assert.Equal(t, "Python backend APIs SQL", descriptor.Description)
	assert.Equal(t, "3+ years", descriptor.Requirements)
}

func Test_ToApplicationStatus(t *testing.T) {
	status, err := ToApplicationStatus("reviewed")
	assert.NoError(t, err)
	assert.Equal(t, StatusReviewed, status)

	_, err = ToApplicationStatus("hired")
	assert.Error(t, err)
}
