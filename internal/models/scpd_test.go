package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanscope/upnprecon/internal/models"
)

func TestSoapActionAssignComplexity(t *testing.T) {
	cases := []struct {
		name string
		in   int
		out  int
		want string
	}{
		{"no arguments is easy", 0, 0, models.ComplexityEasy},
		{"single in, no out is easy", 1, 0, models.ComplexityEasy},
		{"single in, single out is easy", 1, 1, models.ComplexityEasy},
		{"three in args is complex", 3, 0, models.ComplexityComplex},
		{"four out args is complex", 0, 4, models.ComplexityComplex},
		{"two in one out is medium", 2, 1, models.ComplexityMedium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := &models.SoapAction{
				ArgumentsIn:  make([]models.ActionArgument, tc.in),
				ArgumentsOut: make([]models.ActionArgument, tc.out),
			}
			action.AssignComplexity()
			assert.Equal(t, tc.want, action.Complexity)
		})
	}
}
