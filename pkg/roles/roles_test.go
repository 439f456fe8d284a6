package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"", Operator, false},
		{"operator", Operator, false},
		{" Supervisor ", Supervisor, false},
		{"ADMIN", Admin, false},
		{"owner", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasPermission(t *testing.T) {
	assert.True(t, Admin.HasPermission(Supervisor))
	assert.True(t, Supervisor.HasPermission(Supervisor))
	assert.False(t, Operator.HasPermission(Supervisor))
	assert.True(t, Role("unknown").HasPermission(Operator))
	assert.False(t, Role("unknown").HasPermission(Admin))
}
